// Package browsing implements the multi-tab browsing session manager.
//
// A Session owns an ordered collection of tabs, tracks which one is active,
// routes user commands to tabs, and reconciles asynchronous callbacks from
// the rendering engine into observable tab state and a deduplicated visit
// history.
//
// # Architecture
//
// The package is built around five pieces:
//
//  1. Engine: the external page renderer, one per tab, consumed through the
//     Engine and EngineDelegate interfaces
//  2. Tab: one browsing context holding its engine plus a Snapshot of
//     navigation state and a per-host content mode override table
//  3. Decide: the navigation policy that picks a ContentMode for a request
//  4. HistoryStore: newest-first, URL-deduplicated visits persisted in a KVStore
//  5. Session: the tab collection, active index and subscription registries
//
// # Threading
//
// A Session is driven from a single goroutine. Every command and every engine
// callback must run on that goroutine. Engines that work on other goroutines
// deliver their callbacks through a Dispatcher; Loop provides such a goroutine
// for hosts that do not already have one (a Bubble Tea Update loop is another).
//
// # Closing tabs
//
// CloseTab stops the tab's engine and detaches its delegate before removing
// the tab, so a late callback from a closed engine never reaches the Session.
//
// # Example Usage
//
//	loop := browsing.NewLoop()
//	go loop.Run(ctx)
//
//	session, err := browsing.New(store, factory, browsing.WithStartPage(start))
//	loop.Call(func() {
//	    id, _ := session.AddTab(nil)
//	    _ = session.Route(id, browsing.LoadCommand("example.com"))
//	})
package browsing
