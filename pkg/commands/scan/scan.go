// Package scan implements the scan step: walk a directory tree, detect
// the format of every file and record the diffraction images it finds in
// the inventory.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/inventory"
	"github.com/arthur-debert/difftbx/pkg/logging"
)

// debounceDelay is how long the watcher waits after the last filesystem
// event before re-scanning. Detectors write frames in bursts.
const debounceDelay = 250 * time.Millisecond

// Options configures a scan run
type Options struct {
	// Dir is the root of the tree to scan
	Dir string

	// Ignore holds glob patterns matched against file names. Matching
	// files are skipped without format detection.
	Ignore []string

	// FollowSymlinks examines files behind symbolic links instead of
	// skipping them. Directory links are never descended.
	FollowSymlinks bool
}

// Result summarizes one scan run
type Result struct {
	// RunID stamps every inventory row this scan touched
	RunID string

	// Scanned counts the files examined for a format
	Scanned int

	// Matched counts the files recorded in the inventory
	Matched int

	// Skipped counts the files excluded before detection
	Skipped int

	// Unknown counts the files no format could read
	Unknown int

	// ByFormat counts the matched files per format name
	ByFormat map[string]int

	// Files holds the recorded images in walk order
	Files []inventory.ImageFile
}

// Scan walks the directory, detects the format of every file and upserts
// an inventory row per image. Files no format understands are counted but
// not recorded, so a scan over mixed content still succeeds.
func Scan(ctx context.Context, db *inventory.DB, opts Options) (*Result, error) {
	log := logging.GetLogger("commands.scan")
	defer logging.LogDuration(time.Now(), "scan")

	if opts.Dir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "scan directory is required")
	}
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileNotFound, "cannot scan %s", opts.Dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrInvalidInput, "%s is not a directory", opts.Dir)
	}

	result := &Result{RunID: inventory.NewRunID()}
	log.Info().Str("dir", opts.Dir).Str("runID", result.RunID).Msg("Scanning for diffraction images")

	err = filepath.WalkDir(opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot walk %s", path)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if !opts.FollowSymlinks {
				log.Debug().Str("path", path).Msg("Symlink skipped")
				result.Skipped++
				return nil
			}
			target, err := os.Stat(path)
			if err != nil || target.IsDir() {
				// dangling links and directory links are not images
				result.Skipped++
				return nil
			}
		}
		if ignored(d.Name(), opts.Ignore) {
			log.Debug().Str("path", path).Msg("Ignored by pattern")
			result.Skipped++
			return nil
		}

		result.Scanned++
		file, err := examine(path)
		switch {
		case err == nil:
		case errors.IsErrorCode(err, errors.ErrFormatUnknown):
			result.Unknown++
			return nil
		default:
			// a matched format that cannot be read should not abort
			// the rest of the scan
			log.Warn().Err(err).Str("path", path).Msg("Image unreadable")
			result.Unknown++
			return nil
		}

		file.RunID = result.RunID
		if err := db.Record(*file); err != nil {
			return err
		}
		result.Matched++
		result.Files = append(result.Files, *file)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.ByFormat = lo.CountValuesBy(result.Files, func(f inventory.ImageFile) string {
		return f.Format
	})

	log.Info().
		Int("scanned", result.Scanned).
		Int("matched", result.Matched).
		Int("unknown", result.Unknown).
		Int("skipped", result.Skipped).
		Msg("Scan completed")
	return result, nil
}

// Watch scans once, then re-scans whenever files under the directory
// change, calling onScan after every run. Events are debounced so a burst
// of frame writes triggers a single re-scan. Watch returns nil when the
// context is cancelled.
func Watch(ctx context.Context, db *inventory.DB, opts Options, onScan func(*Result)) error {
	log := logging.GetLogger("commands.scan")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot create filesystem watcher")
	}
	defer watcher.Close()

	// fsnotify does not recurse; every subdirectory needs its own watch
	if err := addTree(watcher, opts.Dir); err != nil {
		return err
	}

	result, err := Scan(ctx, db, opts)
	if err != nil {
		return err
	}
	if onScan != nil {
		onScan(result)
	}

	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			// new directories must be watched before frames land in them
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						log.Warn().Err(err).Str("dir", event.Name).Msg("Cannot watch new directory")
					}
				}
			}
			log.Debug().Str("op", event.Op.String()).Str("path", event.Name).Msg("Filesystem change")
			debounce.Reset(debounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")

		case <-debounce.C:
			result, err := Scan(ctx, db, opts)
			if err != nil {
				return err
			}
			if onScan != nil {
				onScan(result)
			}
		}
	}
}

// addTree registers the directory and every subdirectory with the watcher
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "cannot watch %s", path)
		}
		return nil
	})
}

// ignored reports whether any pattern matches the file name
func ignored(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// examine detects the format of the file and reads just enough of its
// models to fill an inventory row
func examine(path string) (*inventory.ImageFile, error) {
	entry, err := format.Find(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", path)
	}

	file := &inventory.ImageFile{
		Path:      abs,
		Format:    entry.Name,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}

	reader, err := entry.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	beam, err := reader.Beam()
	if err != nil {
		return nil, err
	}
	file.WavelengthAng = beam.WavelengthAng

	detector, err := reader.Detector()
	if err != nil {
		return nil, err
	}
	if len(detector.Panels) > 0 {
		file.DetectorName = detector.Panels[0].Name
	}

	scan, err := reader.Scan()
	if err != nil {
		return nil, err
	}
	file.Frames = scan.NumImages()

	return file, nil
}
