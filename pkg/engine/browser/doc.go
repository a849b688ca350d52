// Package browser implements the browsing engine contract on top of
// Chromium through Playwright.
//
// # Architecture
//
// The package is built around two types:
//
// 1. Manager: owns the Playwright driver and one shared Chromium instance
// 2. Engine: one isolated browser context and page per tab
//
// Each Engine translates Playwright activity into EngineDelegate callbacks:
//
//   - Main-frame document requests are intercepted and the delegate's
//     DecidePolicy picks the content mode before the request continues
//   - Frame navigation, DOMContentLoaded and load events become DidCommit
//     snapshots with increasing progress
//   - Navigation errors become DidFail, with superseded navigations wrapped
//     as browsing.ErrNavigationCancelled
//
// # Threading
//
// Playwright delivers events on its own goroutines and page calls block.
// Commands therefore run on short-lived goroutines, and event handling is
// serialized on a per-engine worker so that snapshots reach the session in
// the order they happened. Every delegate call is marshalled through the
// browsing.Dispatcher given to the factory.
//
// DecidePolicy is a synchronous round trip through the dispatcher. If the
// session does not answer within Options.PolicyDeadline the navigation
// proceeds with the Recommended mode.
//
// # Content modes
//
//   - Recommended: desktop viewport, Chromium's own user agent
//   - Mobile: mobile viewport and MobileUserAgent
//   - Desktop: desktop viewport and DesktopUserAgent
//
// # Example Usage
//
//	manager := browser.NewManager(browser.DefaultOptions())
//	if err := manager.Initialize(); err != nil {
//	    return err
//	}
//	defer manager.Shutdown()
//
//	loop := browsing.NewLoop()
//	session, err := browsing.New(store, manager.Factory(loop))
package browser
