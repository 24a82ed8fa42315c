// Package catalog holds the declarations of plugin types contributed by
// owning modules.
//
// Types are keyed by (owner, type name), never by the type name alone, so two
// modules can declare a type with the same name without colliding. The
// catalog is populated once at the start of a discovery pass and frozen
// afterwards; a frozen catalog is read-only and safe for concurrent use.
package catalog
