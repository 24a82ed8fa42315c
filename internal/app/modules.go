package app

import (
	"path/filepath"

	"github.com/vk/pluginmanager/internal/registry"
	"github.com/vk/pluginmanager/modules/coffeemaker"
)

// coreModules is the definitive list of all modules that are compiled into
// the pluginmanager binary. Each is rooted at <modulesPath>/<name>.
func coreModules(modulesPath string) []registry.Module {
	return []registry.Module{
		coffeemaker.New(filepath.Join(modulesPath, coffeemaker.Name)),
	}
}
