// Package model defines the core data structures shared by the dstask
// packages.
//
// # Task
//
// Task is a read-only projection of one remote download task. The task
// list is always handled as a snapshot: every poll replaces it wholesale.
//
//	for _, task := range tasks {
//	    fmt.Printf("%s %s %.1f%%\n", task.Title, task.Status, task.Progress()*100)
//	}
//
// # Identity
//
// Identity carries the account name, secret and optional one-time code for
// a single login attempt. It is never persisted.
//
// # SessionRecord
//
// SessionRecord is the non-secret, per-host state kept between runs:
//
//	rec := model.SessionRecord{
//	    HostKey:      "nas.local:5001",
//	    SessionToken: sid,
//	    Account:      "alice",
//	}
//
// A SessionRecord has no field that can hold a secret or one-time code.
package model
