package locator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/pluginmanager/internal/ctxlog"
	"github.com/vk/pluginmanager/internal/fsutil"
	"github.com/vk/pluginmanager/internal/pluginid"
	"github.com/vk/pluginmanager/internal/registry"
)

var (
	errEscapesRoot = errors.New("path escapes the module root")
	errNotDir      = errors.New("not a directory")
)

// Location is a candidate directory to scan for plugins of one type.
type Location struct {
	// Provider is the module that answered the locate call.
	Provider string
	Owner    string
	Type     string
	// RelativePath is the cleaned path returned by the provider, using
	// forward slashes.
	RelativePath string
	// Dir is RelativePath joined to the provider's root.
	Dir string
}

// TypeKey returns the plugin type this location serves.
func (l Location) TypeKey() pluginid.TypeKey {
	return pluginid.NewTypeKey(l.Owner, l.Type)
}

// Resolve queries every directory locator for every type. Locations that
// cannot be resolved are returned as errors alongside the good ones.
func Resolve(ctx context.Context, modules []registry.Module, types []pluginid.TypeKey) ([]Location, []error) {
	logger := ctxlog.FromContext(ctx)

	var locations []Location
	var errs []error
	for _, m := range modules {
		dl, ok := m.(registry.DirectoryLocator)
		if !ok {
			continue
		}
		for _, key := range types {
			loc, found, err := resolveOne(m, dl, key)
			if err != nil {
				logger.Warn("Skipping plugin location.", "module", m.Name(), "type", key.String(), "error", err)
				errs = append(errs, err)
				continue
			}
			if !found {
				continue
			}
			logger.Debug("Resolved plugin location.", "module", m.Name(), "type", key.String(), "dir", loc.Dir)
			locations = append(locations, loc)
		}
	}
	return locations, errs
}

func resolveOne(m registry.Module, dl registry.DirectoryLocator, key pluginid.TypeKey) (loc Location, found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &LocatorError{Provider: m.Name(), Key: key, Err: fmt.Errorf("locate callback panicked: %v", r)}
		}
	}()

	raw := dl.LocateDirectory(key.Owner, key.Type)
	rel, err := cleanRelative(raw)
	if err != nil {
		return Location{}, false, &LocatorError{Provider: m.Name(), Key: key, Path: raw, Err: err}
	}
	if rel == "" {
		return Location{}, false, nil
	}

	return Location{
		Provider:     m.Name(),
		Owner:        key.Owner,
		Type:         key.Type,
		RelativePath: rel,
		Dir:          filepath.Join(m.Root(), filepath.FromSlash(rel)),
	}, true, nil
}

// cleanRelative trims surrounding slashes and rejects paths that climb out
// of the module root. An empty result means "no location".
func cleanRelative(raw string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "", nil
	}
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(trimmed)))
	if cleaned == "." {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || filepath.IsAbs(cleaned) {
		return "", errEscapesRoot
	}
	return cleaned, nil
}

// Scan returns the definition files under loc.Dir that carry one of the
// given extensions, in lexicographic order.
func Scan(ctx context.Context, loc Location, extensions []string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(loc.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("Plugin directory does not exist, no plugins.", "dir", loc.Dir, "type", loc.TypeKey().String())
			return nil, nil
		}
		return nil, &LocatorError{Provider: loc.Provider, Key: loc.TypeKey(), Path: loc.Dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &LocatorError{Provider: loc.Provider, Key: loc.TypeKey(), Path: loc.Dir, Err: errNotDir}
	}

	files, err := fsutil.FindFilesByExtension(loc.Dir, extensions...)
	if err != nil {
		return nil, &LocatorError{Provider: loc.Provider, Key: loc.TypeKey(), Path: loc.Dir, Err: err}
	}

	logger.Debug("Scanned plugin directory.", "dir", loc.Dir, "files", len(files))
	return files, nil
}
