/*
Package loader drives the ingestion of a Yelp dataset snapshot into the
normalized SQLite schema.

PURPOSE:
  One loader per entity kind (business, user, review, checkin, tip,
  photo) plus a second friend-graph pass over the user file. Run()
  discovers which files a data folder holds, enforces the mandatory-file
  precondition, and sequences the loaders in dependency order.

SEQUENCING:
  Business -> User -> Friends -> Review -> [Checkin] -> [Tip] -> [Photo]

  The friend pass must follow the user load so every user already has a
  surrogate id. Review, tip, checkin and photo loaders tolerate running
  against businesses/users they have not seen: they create stub rows on
  demand (see store/sqlite ResolveOrCreate).

FAILURE MODEL:
  Missing business, user or review file: the run aborts with
  ErrMissingMandatoryFiles before any rows are written. A duplicate
  natural key skips only that record. A malformed line aborts its file's
  transaction; earlier files stay committed.

SEE ALSO:
  - record package: streaming and decoding the source files
  - store/sqlite:   schema and write primitives
*/
package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/reviewbase/yelpdb/store/sqlite"
)

// ErrMissingMandatoryFiles reports that the data folder lacks one of the
// business, user or review files.
var ErrMissingMandatoryFiles = errors.New("data folder must contain business, user, and review json files")

// Options configures a pipeline run.
type Options struct {
	// DataDir is the folder holding the dataset's .json files.
	DataDir string
	// IncludePhotos controls whether a present photo file is loaded.
	IncludePhotos bool
	// Verbose enables progress reporting. It has no effect on data.
	Verbose bool
}

func (o Options) progress(format string, args ...any) {
	if o.Verbose {
		log.Printf(format, args...)
	}
}

// datasetFiles holds the discovered source file paths; empty means absent.
type datasetFiles struct {
	business string
	user     string
	review   string
	checkin  string
	tip      string
	photo    string
}

// discover scans dir for .json files, matching each entity kind by
// filename substring ("business", "user", ...).
func discover(dir string) (datasetFiles, error) {
	var files datasetFiles

	entries, err := os.ReadDir(dir)
	if err != nil {
		return files, fmt.Errorf("read data folder: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch name := entry.Name(); {
		case strings.Contains(name, "business"):
			files.business = path
		case strings.Contains(name, "user"):
			files.user = path
		case strings.Contains(name, "review"):
			files.review = path
		case strings.Contains(name, "checkin"):
			files.checkin = path
		case strings.Contains(name, "tip"):
			files.tip = path
		case strings.Contains(name, "photo"):
			files.photo = path
		}
	}
	return files, nil
}

// Run ingests the dataset at opts.DataDir into st. Business, user and
// review files are mandatory; the rest load only when present.
func Run(ctx context.Context, st *sqlite.Store, opts Options) error {
	files, err := discover(opts.DataDir)
	if err != nil {
		return err
	}
	if files.business == "" || files.user == "" || files.review == "" {
		return ErrMissingMandatoryFiles
	}

	opts.progress("Loading: %s", filepath.Base(files.business))
	if err := LoadBusinesses(ctx, st, files.business); err != nil {
		return fmt.Errorf("load businesses: %w", err)
	}

	opts.progress("Loading: %s", filepath.Base(files.user))
	if err := LoadUsers(ctx, st, files.user); err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	opts.progress("Connecting users")
	if err := ConnectUsers(ctx, st, files.user); err != nil {
		return fmt.Errorf("connect users: %w", err)
	}

	opts.progress("Loading: %s", filepath.Base(files.review))
	if err := LoadReviews(ctx, st, files.review); err != nil {
		return fmt.Errorf("load reviews: %w", err)
	}

	if files.checkin != "" {
		opts.progress("Loading: %s", filepath.Base(files.checkin))
		if err := LoadCheckins(ctx, st, files.checkin); err != nil {
			return fmt.Errorf("load checkins: %w", err)
		}
	}

	if files.tip != "" {
		opts.progress("Loading: %s", filepath.Base(files.tip))
		if err := LoadTips(ctx, st, files.tip); err != nil {
			return fmt.Errorf("load tips: %w", err)
		}
	}

	if files.photo != "" && opts.IncludePhotos {
		opts.progress("Loading: %s", filepath.Base(files.photo))
		if err := LoadPhotos(ctx, st, files.photo); err != nil {
			return fmt.Errorf("load photos: %w", err)
		}
	}

	return nil
}
