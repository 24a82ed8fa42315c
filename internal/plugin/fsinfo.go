// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the FSInfo struct, which stores file system metadata.
//
// The provider module and the file path connect a parsed definition back to
// its physical source. Error messages name the exact file, and normalization
// records the same information as provenance attributes.
package plugin

import "path/filepath"

// FSInfo records where a definition was loaded from.
type FSInfo struct {
	// Provider is the module whose directory contained the file.
	Provider string
	// Dir is the scanned plugin directory.
	Dir string
	// FilePath is the full path of the definition file.
	FilePath string
}

// NewFSInfo creates source metadata for a definition file.
func NewFSInfo(provider, dir, filePath string) *FSInfo {
	return &FSInfo{
		Provider: provider,
		Dir:      dir,
		FilePath: filePath,
	}
}

// FileName returns the base name of the definition file.
func (f *FSInfo) FileName() string {
	if f == nil || f.FilePath == "" {
		return ""
	}
	return filepath.Base(f.FilePath)
}
