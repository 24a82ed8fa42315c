// Package alter runs the alteration pipeline over discovered plugin
// definitions.
//
// Each definition passes through three phases: every pre-alter callback in
// module registration order, normalization, then every post-alter callback in
// registration order. Callbacks receive the definition itself and a private
// copy of its type info.
//
// The identity triple is guarded. After each step the pipeline checks that
// the definition's owner, type and name attributes, and the type info's owner
// and type, are unchanged. A violation yields a *ValidationError and the
// definition is dropped; other definitions are unaffected.
package alter
