package driver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

var runsBucket = []byte("runs")

// keyLayout pads the fractional second to full width so the bucket's
// byte order is chronological. RFC3339Nano trims trailing zeros, which
// would sort "...05Z" after "...05.5Z".
const keyLayout = "2006-01-02T15:04:05.000000000Z07:00"

// History stores one record per suite run, so consecutive runs can be
// compared for regressions.
type History struct {
	db *bolt.DB
}

// RunRecord is the persisted outcome of one suite run.
type RunRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Commit    string          `json:"commit,omitempty"`
	Results   []ProgramResult `json:"results"`
}

// OpenHistory opens (creating if needed) the store at path.
func OpenHistory(path string) (*History, error) {
	if path == "" {
		return nil, fmt.Errorf("history: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Record appends one run, keyed by its timestamp.
func (h *History) Record(run RunRecord) error {
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("history: encode run: %w", err)
	}
	key := []byte(run.Timestamp.UTC().Format(keyLayout))
	slog.Debug("recording suite run", slog.String("key", string(key)), slog.Int("programs", len(run.Results)))
	return h.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(runsBucket)
		if err != nil {
			return err
		}
		return bucket.Put(key, value)
	})
}

// LastRun returns the most recent record, or ok=false when the store has
// none.
func (h *History) LastRun() (RunRecord, bool, error) {
	var (
		run   RunRecord
		found bool
	)
	err := h.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(runsBucket)
		if bucket == nil {
			return nil
		}
		_, value := bucket.Cursor().Last()
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &run); err != nil {
			return fmt.Errorf("history: decode run: %w", err)
		}
		found = true
		return nil
	})
	return run, found, err
}

// Runs returns every record in chronological order.
func (h *History) Runs() ([]RunRecord, error) {
	var runs []RunRecord
	err := h.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(runsBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, value []byte) error {
			var run RunRecord
			if err := json.Unmarshal(value, &run); err != nil {
				return fmt.Errorf("history: decode run: %w", err)
			}
			runs = append(runs, run)
			return nil
		})
	})
	return runs, err
}

// RunDiff describes how one run moved relative to the run before it.
type RunDiff struct {
	NewlyFailing []string
	NewlyPassing []string
	Drifted      []string
}

func (d RunDiff) Empty() bool {
	return len(d.NewlyFailing) == 0 && len(d.NewlyPassing) == 0 && len(d.Drifted) == 0
}

// DiffRuns compares two runs program by program. Drifted lists programs
// that pass in both runs but no longer produce the same output; only
// programs without a checked expectation can drift.
func DiffRuns(prev, cur RunRecord) RunDiff {
	prevByName := make(map[string]ProgramResult, len(prev.Results))
	for _, result := range prev.Results {
		prevByName[result.Program] = result
	}

	var diff RunDiff
	for _, result := range cur.Results {
		before, seen := prevByName[result.Program]
		if !seen {
			continue
		}
		switch {
		case before.Passed && !result.Passed:
			diff.NewlyFailing = append(diff.NewlyFailing, result.Program)
		case !before.Passed && result.Passed:
			diff.NewlyPassing = append(diff.NewlyPassing, result.Program)
		case before.Passed && result.Passed && !result.Checked && before.Digest != result.Digest:
			diff.Drifted = append(diff.Drifted, result.Program)
		}
	}
	sort.Strings(diff.NewlyFailing)
	sort.Strings(diff.NewlyPassing)
	sort.Strings(diff.Drifted)
	return diff
}
