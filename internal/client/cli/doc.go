// Package cli provides vaultctl, the interactive BitGuard command-line tool.
//
// vaultctl works entirely offline against password-sealed entries: it seals a
// credential record or an arbitrary blob under a password the user types,
// prints the result as base64, and opens such strings again. It can also
// check a password against the breach range service and generate random
// passwords.
//
// Commands:
//   - seal            seal a new entry under a password
//   - open            open a base64 password-sealed entry
//   - breach          check a password against known breaches
//   - genpass [len]   generate a random password
//   - help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
