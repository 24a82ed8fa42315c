// Package locator resolves and scans plugin directories.
//
// Resolution asks every module implementing registry.DirectoryLocator, in
// registration order, for every catalogued type, in catalog order, where it
// keeps plugins. The set of (module, type) pairs queried never depends on the
// file system, so the list of locations is reproducible across runs.
//
// Scanning walks a resolved directory and returns candidate definition files
// in lexicographic order. A directory that does not exist holds zero plugins;
// a directory that exists but cannot be read is reported as a *LocatorError
// and the caller carries on with the remaining locations.
package locator
