package manifest

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// file is the top-level structure of a manifest file.
type file struct {
	Modules []*moduleBlock `hcl:"module,block"`
}

type moduleBlock struct {
	Name        string             `hcl:"name,label"`
	Root        string             `hcl:"root,optional"`
	PluginTypes []*pluginTypeBlock `hcl:"plugin_type,block"`
	Directories []*directoryBlock  `hcl:"directory,block"`
	Alters      []*alterBlock      `hcl:"alter,block"`
}

type pluginTypeBlock struct {
	Name    string     `hcl:"name,label"`
	Options *cty.Value `hcl:"options,optional"`
}

type directoryBlock struct {
	Owner string         `hcl:"owner,optional"`
	Types []string       `hcl:"types,optional"`
	Path  hcl.Expression `hcl:"path"`
}

type alterBlock struct {
	Phase string     `hcl:"phase,label"`
	Owner string     `hcl:"owner,optional"`
	Type  string     `hcl:"type"`
	Set   *cty.Value `hcl:"set,optional"`
	Unset []string   `hcl:"unset,optional"`
}
