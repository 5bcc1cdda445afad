// Package download provides the task orchestration logic: foreground
// commands and the background sync loop against one Download Station.
//
// # Manager
//
// The Manager coordinates every remote call:
//
//  1. Acquire the busy gate (one remote call at a time)
//  2. Run the call
//  3. On session expiry, re-authenticate once and retry the call once
//  4. Report a one-line status through the status sink
//
// # Basic Usage
//
//	manager := download.NewManager(client, orchestrator, prompter, func(e status.Event) {
//	    fmt.Println(e.Message)
//	})
//
//	ids, err := manager.Create(ctx, download.CreateRequest{URLs: []string{magnet}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Sync Loop
//
// RunSync polls the task list on a fixed interval until its context is
// cancelled. A tick that finds the gate busy, or a prompt open, is
// skipped rather than queued:
//
//	go manager.RunSync(ctx, time.Second)
//
// Each successful poll replaces the task snapshot wholesale and, when no
// destination is cached for the host, captures the first destination
// reported by the tasks.
//
// # Destination Handshake
//
// When task creation fails because the service needs a destination, the
// Manager prompts once for a folder and retries the same call once. An
// empty answer cancels.
package download
