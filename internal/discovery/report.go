package discovery

import (
	"errors"
	"fmt"

	"github.com/vk/pluginmanager/internal/alter"
	"github.com/vk/pluginmanager/internal/definition"
	"github.com/vk/pluginmanager/internal/locator"
	"github.com/vk/pluginmanager/internal/metrics"
	"github.com/vk/pluginmanager/internal/snapshot"
)

// EntryError reports a parsed entry that could not become a definition,
// for example because its name is not a valid identity segment.
type EntryError struct {
	Path string
	Name string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("plugin %q in %s: %v", e.Name, e.Path, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Report collects the non-fatal problems of one pass.
type Report struct {
	Locations   int
	Files       int
	Definitions int
	Published   int
	Errors      []error
}

func (r *Report) add(m *metrics.Metrics, err error) {
	r.Errors = append(r.Errors, err)
	m.RecordError(Kind(err))
}

// Err joins every collected error, or returns nil when the pass was clean.
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

// Count returns the number of collected errors of the given kind.
func (r *Report) Count(kind string) int {
	n := 0
	for _, err := range r.Errors {
		if Kind(err) == kind {
			n++
		}
	}
	return n
}

// Kind classifies a non-fatal pass error using the metrics kind labels.
func Kind(err error) string {
	var (
		locErr   *locator.LocatorError
		parseErr *definition.ParseError
		valErr   *alter.ValidationError
		cbErr    *alter.CallbackError
		dupErr   *snapshot.DuplicatePluginError
	)
	switch {
	case errors.As(err, &valErr):
		return metrics.KindValidation
	case errors.As(err, &cbErr):
		return metrics.KindCallback
	case errors.As(err, &dupErr):
		return metrics.KindDuplicate
	case errors.As(err, &parseErr):
		return metrics.KindParse
	case errors.As(err, &locErr):
		return metrics.KindLocator
	default:
		return metrics.KindDefinition
	}
}
