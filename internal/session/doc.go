// Package session implements the host-keyed session cache.
//
// A Store keeps one model.SessionRecord per host. FileStore persists the
// whole mapping to a single JSON file that is rewritten atomically on
// every change and is readable only by the owning user. MemoryStore keeps
// records for the lifetime of the process and is used when session
// caching is disabled.
//
//	store := session.NewFileStore("/home/me/.config/dstask/session.json")
//	rec, err := store.Load(session.NormalizeHost("https://NAS.local:5001/"))
//
// Neither store ever holds a secret or a one-time code: the persisted
// form has no field for them.
package session
