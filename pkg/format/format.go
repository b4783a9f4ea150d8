// Package format implements detection and reading of diffraction image
// formats. Format implementations live in subpackages and register
// themselves through init(), so a blank import is enough to make a format
// available to Find and Open.
package format

import (
	"os"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/logging"
	"github.com/arthur-debert/difftbx/pkg/model"
	"github.com/arthur-debert/difftbx/pkg/registry"
)

// Reader provides access to the experimental models and pixel data of a
// single diffraction image. Model accessors may be called in any order and
// any number of times. Close releases the underlying file handle.
type Reader interface {
	// Format returns the name of the format entry that opened the image
	Format() string

	// Beam returns the incident beam model
	Beam() (*model.Beam, error)

	// Goniometer returns the goniometer model, which is either a
	// *model.Goniometer or a *model.MultiAxisGoniometer
	Goniometer() (model.GoniometerModel, error)

	// Detector returns the detector model
	Detector() (*model.Detector, error)

	// Scan returns the scan model
	Scan() (*model.Scan, error)

	// RawData returns the pixel values in fast-then-slow order
	RawData() ([]int32, error)

	// Close releases any resources held by the reader
	Close() error
}

// Entry describes a registered image format. Understand must be cheap and
// side-effect free: it inspects the file and reports whether this format
// can read it, without returning an error. Open constructs a Reader for a
// file Understand accepted.
type Entry struct {
	// Name uniquely identifies the format, e.g. "SMV-ADSC"
	Name string

	// Level orders competing formats: when several entries understand the
	// same file, the highest level wins. More specialized formats use
	// higher levels.
	Level int

	// Description is a one-line human-readable summary for listings
	Description string

	// Understand reports whether this format can read the file
	Understand func(path string) bool

	// Open constructs a reader for the file
	Open func(path string) (Reader, error)
}

// formats is the process-wide registry of image formats
var formats = registry.New[Entry]()

// Register adds a format entry to the registry
func Register(e Entry) error {
	if e.Name == "" {
		return errors.New(errors.ErrInvalidInput, "format name cannot be empty")
	}
	if e.Level <= 0 {
		return errors.Newf(errors.ErrInvalidInput, "format '%s' must have a positive level", e.Name)
	}
	if e.Understand == nil || e.Open == nil {
		return errors.Newf(errors.ErrInvalidInput, "format '%s' must provide Understand and Open", e.Name)
	}
	return formats.Register(e.Name, e)
}

// MustRegister registers a format entry and panics if registration fails.
// Format subpackages call this from init(), where a failure is a
// programming error.
func MustRegister(e Entry) {
	if err := Register(e); err != nil {
		panic(err)
	}
}

// Lookup returns the entry registered under name
func Lookup(name string) (Entry, error) {
	return formats.Get(name)
}

// List returns all registered entries sorted by name
func List() []Entry {
	names := formats.List()
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entry, err := formats.Get(name)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Find returns the most specific format that understands the file. When
// several formats at the same level understand it, the first by name wins
// so that detection is deterministic.
func Find(path string) (Entry, error) {
	log := logging.GetLogger("format")

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, errors.Wrapf(err, errors.ErrFileNotFound, "no such image file: %s", path)
		}
		return Entry{}, errors.Wrapf(err, errors.ErrFileAccess, "cannot access image file: %s", path)
	}
	if info.IsDir() {
		return Entry{}, errors.Newf(errors.ErrInvalidInput, "%s is a directory, not an image file", path)
	}

	var best Entry
	found := false
	for _, entry := range List() {
		if !entry.Understand(path) {
			continue
		}
		log.Debug().
			Str("path", path).
			Str("format", entry.Name).
			Int("level", entry.Level).
			Msg("format candidate understands file")
		if !found || entry.Level > best.Level {
			best = entry
			found = true
		}
	}
	if !found {
		return Entry{}, errors.Newf(errors.ErrFormatUnknown, "no registered format understands %s", path)
	}

	log.Debug().
		Str("path", path).
		Str("format", best.Name).
		Msg("format selected")
	return best, nil
}

// Open detects the format of the file and opens a reader for it
func Open(path string) (Reader, error) {
	entry, err := Find(path)
	if err != nil {
		return nil, err
	}
	return entry.Open(path)
}
