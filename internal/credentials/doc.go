// Package credentials decides where the account name, secret and
// one-time code for a login come from.
//
// # Resolution Order
//
//  1. A cached session token with no external provider configured:
//     nothing is resolved, the token is reused.
//  2. An external provider (the 1Password CLI) when configured. Provider
//     failures are reported as warnings, never returned.
//  3. Interactive prompts for every field still missing. The last known
//     account name is offered as the default; the secret is read without
//     echo.
//
// # Prompters
//
// Prompter abstracts the foreground surface. TerminalPrompter reads from
// a terminal or plain reader; the TUI provides its own implementation.
// Returning ErrAborted from a prompt cancels the login.
package credentials
