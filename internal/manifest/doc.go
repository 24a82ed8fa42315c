// Package manifest loads modules declared in HCL manifest files, so that
// plugin types, plugin directories and simple alterations can be added
// without compiling a Go module.
//
// A manifest declares one or more modules:
//
//	module "coffeemaker" {
//	  root = "./coffeemaker"
//
//	  plugin_type "brewer_types" {
//	    options = { load_themes = true, defaults = { cup = "small" } }
//	  }
//
//	  directory {
//	    owner = "coffeemaker"
//	    path  = "plugins/${type}"
//	  }
//
//	  alter "post" {
//	    type  = "brewer_types"
//	    set   = { roast = "dark" }
//	    unset = ["legacy"]
//	  }
//	}
//
// Directory paths are expressions evaluated with the variables `owner` and
// `type`. Roots are relative to the manifest file.
package manifest
