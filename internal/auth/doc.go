// Package auth drives login against the Download Station service.
//
// The Orchestrator is a small state machine:
//
//	Idle -> Authenticating -> Authenticated
//	            |   ^
//	            v   |
//	          NeedOTP
//	            |
//	            v
//	          Failed
//
// It reacts to the classified outcome of each login call: a one-time
// code demand is answered from the credential provider or a prompt, a
// rejected password leads to a fresh account/password prompt, and a
// configuration error is returned to the caller. The loop ends when the
// login succeeds or the user cancels a prompt.
//
// The Orchestrator owns the working SessionRecord for its host. Session
// tokens are only written here; the default destination is written by
// RememberDestination (explicit task creation) and CaptureDestination
// (the sync loop's capture point).
package auth
