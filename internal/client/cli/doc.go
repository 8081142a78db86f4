// Package cli provides the interactive researcher command-line client.
//
// It wires configuration, local credential storage, the API gateway, the
// session manager and the notification bus into a REPL. Typical flow:
// restore the stored session in the background, then log in, open a
// project and chat with its documents.
//
// Key features:
//   - Register / Login / Logout, admin login
//   - Projects and documents (upload, remove, select for chat)
//   - Quick chat with inline citation chips, deep research, gap analysis
//   - Subscription upgrade and admin approval
//   - Toasts for every failed request, HTML export of the history
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// Ctrl-C cancels the command in progress. A panic inside a command shows a
// failure notice and rebuilds the whole client state from storage.
package cli
