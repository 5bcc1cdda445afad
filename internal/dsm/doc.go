// Package dsm is the Download Station service client.
//
// Client holds the current session id and nothing else. Every call other
// than Login appends it; a call without one fails with ErrUnauthorized
// before anything is sent.
//
// # Errors
//
// Remote failures are returned as *APIError carrying the numeric code.
// Callers decide on recovery with the classification helpers:
//
//	tasks, err := client.ListTasks(ctx)
//	switch {
//	case dsm.IsSessionExpired(err):
//	    // re-authenticate, then retry once
//	case dsm.IsDestinationRequired(err):
//	    // ask for a destination, then retry once
//	}
//
// Transport failures from the underlying HTTP client are wrapped with the
// API and method name and returned unchanged otherwise.
package dsm
