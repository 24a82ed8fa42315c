// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package plugin provides the in-memory model of plugin definitions as they
// move through a discovery pass.
//
// # Core Concepts
//
//   - TypeInfo: the declaration of a plugin type, handed to alter callbacks so
//     they can decide whether a definition concerns them.
//
//   - Definition: a definition still being built. It is produced by parsing a
//     file found in a located directory and is mutated in place by the pre-alter
//     and post-alter callbacks.
//
//   - Final: the read-only result of the alteration pipeline. Its attributes are
//     copied on construction and are never exposed mutably again.
//
//   - FSInfo: metadata that links every definition back to the module and file
//     it came from.
//
// Why reserve identity attributes?
//
// Every definition carries `owner`, `type` and `name` both as its identity and
// as attributes, so consumers can read them like any other attribute. The
// identity is fixed when the definition is created; the alteration pipeline
// compares the reserved attributes against it after every callback and rejects
// the definition if a callback changed them.
package plugin
