// Package command defines the statevault CLI commands.
//
// Every command opens the configured store, performs one operation and
// renders the result with the selected output format. Configuration comes
// from --config, STATEVAULT_ environment variables and the global flags, in
// increasing priority.
package command
