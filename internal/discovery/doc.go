// Package discovery runs a complete discovery pass: it builds the type
// catalog from the registered modules, resolves and scans plugin directories,
// parses definition files, runs every definition through the alteration
// pipeline and publishes the result as a single snapshot.
//
// A pass either publishes a complete snapshot or nothing. Problems confined
// to one directory, file or definition are collected in a Report and the
// pass carries on; a duplicate type declaration or cancellation aborts it.
package discovery
