// Package definition turns plugin definition files into raw attribute maps.
//
// A file may describe a single plugin through top-level attributes, or
// several plugins through labelled blocks:
//
//	# espresso.hcl: one plugin, named after the file unless `name` is set
//	strength = 9
//
//	# brewers.hcl: one plugin per block
//	plugin "espresso" { strength = 9 }
//	plugin "lungo"    { strength = 5 }
//
// HCL native syntax (.hcl), HCL JSON syntax (.json) and YAML (.yaml, .yml)
// are supported. YAML files use a top-level `plugins` mapping for the
// multi-plugin form.
package definition
