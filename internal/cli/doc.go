// Package cli builds the cobra command tree for the pluginmanager binary:
// `discover` prints the published snapshot, `types` lists the type catalog,
// `locate` lists resolved plugin directories and `serve` runs the health
// server with optional watch mode. Usage errors map to exit code 2 through
// ExitError.
package cli
