// Package headless implements the scripted, non-interactive browsing runner.
//
// The headless executor drives a browsing Session from a YAML script in
// environments without a terminal UI, such as CI jobs and smoke checks. It
// provides:
//
// - Ordered browsing steps (open, load, back, forward, reload, toggle_mode,
// switch, close, wait)
// - Safety constraints on reachable hosts, tab count and total run time
// - Artifact generation for debugging and auditing
//
// Architecture:
//
//	┌─────────────────────────────────────────────────────────┐
//	│                 Headless Executor                        │
//	│  - Step runner                                          │
//	│  - Host / tab constraints                               │
//	│  - Artifact generation                                  │
//	└──────────────────┬──────────────────────────────────────┘
//	                   │ browsing.Loop (single goroutine)
//	                   ▼
//	        ┌──────────────────────┐
//	        │   browsing.Session   │
//	        │   engines dispatch   │
//	        │   into the same loop │
//	        └──────────────────────┘
//
// Example script:
//
//	name: smoke
//	steps:
//	  - action: open
//	    target: example.com
//	    wait: 10s
//	  - action: toggle_mode
//	    wait: 10s
//	  - action: close
//	constraints:
//	  allowed_hosts: ["example.com", "*.example.com"]
//	  max_tabs: 3
//	  timeout: 2m
//	artifacts:
//	  enabled: true
//	  output_dir: .surf/artifacts
//
// Example usage:
//
//	config, _ := headless.LoadConfig("smoke.yaml")
//	loop := browsing.NewLoop()
//	session, _ := browsing.New(store, manager.Factory(loop))
//	executor, _ := headless.NewExecutor(session, loop, config)
//
//	if err := executor.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Artifacts:
//
// The artifact writer generates execution reports:
// - execution.json: steps, final tabs, history and navigation failures
// - summary.md: Human-readable markdown summary
package headless
