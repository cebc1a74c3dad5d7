package converters

import (
	"context"
	"time"

	"github.com/convgate/convgate/storage"
)

// ProgressFunc receives progress updates from a backend. Percent values must
// be non-decreasing within one conversion.
type ProgressFunc func(percent int, message string)

// Backend is the common conversion contract. Convert transforms inputPath
// into a new scratch file for the target format and returns its path. Engine
// failures come back as *models.ConversionError.
type Backend interface {
	Convert(ctx context.Context, inputPath, target string, progress ProgressFunc) (string, error)
}

// Options carries the injected collaborators every backend needs.
type Options struct {
	Store         *storage.TempStore
	EngineTimeout time.Duration
	// PhoneRegion is the default region for numbers without a country prefix.
	PhoneRegion string
}

// ForCategory returns the backend for a resolved category. The set is closed:
// the classifier can only produce these four.
func ForCategory(cat Category, opts Options) Backend {
	switch cat {
	case CategoryImage:
		return &imageBackend{opts: opts}
	case CategoryAV:
		return &avBackend{opts: opts}
	case CategoryData:
		return &dataBackend{opts: opts}
	default:
		return &documentBackend{opts: opts}
	}
}
