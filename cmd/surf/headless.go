package main

import (
	"context"
	"fmt"

	"github.com/entrhq/surf/pkg/browsing"
	"github.com/entrhq/surf/pkg/engine/browser"
	"github.com/entrhq/surf/pkg/executor/headless"
	"github.com/entrhq/surf/pkg/kvstore"
)

// runHeadless executes a YAML script against a fresh session.
func runHeadless(ctx context.Context, config *Config, kv kvstore.Store, manager *browser.Manager, sessionOpts []browsing.Option) error {
	execConfig, err := headless.LoadConfig(config.Script)
	if err != nil {
		return fmt.Errorf("failed to load headless script: %w", err)
	}

	// The executor drives the session from this loop, and engines deliver
	// their callbacks through it.
	loop := browsing.NewLoop()
	session, err := browsing.New(kv, manager.Factory(loop), sessionOpts...)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	executor, err := headless.NewExecutor(session, loop, execConfig)
	if err != nil {
		session.Close()
		return fmt.Errorf("failed to create executor: %w", err)
	}

	if runErr := executor.Run(ctx); runErr != nil {
		return fmt.Errorf("execution failed: %w", runErr)
	}
	return nil
}
