package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Makepad-fr/foodtrack/internal/model"
)

// JSON-backed storage: one file holding [[name, calories], ...] in list order.
// Every save rewrites the whole file. No locking; single user.

// DefaultFileName is used when no path is configured.
const DefaultFileName = "food_data.json"

// Status describes what Load found on disk.
type Status int

const (
	StatusLoaded Status = iota
	StatusMissing
	StatusCorrupt
	StatusUnreadable
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusMissing:
		return "missing"
	case StatusCorrupt:
		return "corrupt"
	case StatusUnreadable:
		return "unreadable"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome of Load. Foods is never nil.
// Err carries the reason when Status is StatusCorrupt or StatusUnreadable.
type Result struct {
	Foods  []model.Food
	Status Status
	Err    error
}

// Failed reports whether a data file exists but could not be used.
func (r Result) Failed() bool {
	return r.Status == StatusCorrupt || r.Status == StatusUnreadable
}

type Store struct {
	path string
}

// New returns a store for path. An empty path means DefaultFileName in the
// working directory.
func New(path string) (*Store, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(wd, DefaultFileName)
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() Result {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Foods: []model.Food{}, Status: StatusMissing}
		}
		return Result{Foods: []model.Food{}, Status: StatusUnreadable, Err: fmt.Errorf("read file: %w", err)}
	}
	var foods []model.Food
	if err := json.Unmarshal(b, &foods); err != nil {
		return Result{Foods: []model.Food{}, Status: StatusCorrupt, Err: fmt.Errorf("json unmarshal: %w", err)}
	}
	if foods == nil {
		// a literal `null` decodes without error
		return Result{Foods: []model.Food{}, Status: StatusCorrupt, Err: errors.New("json unmarshal: not an array")}
	}
	for i, f := range foods {
		if err := model.Validate(f); err != nil {
			return Result{Foods: []model.Food{}, Status: StatusCorrupt, Err: fmt.Errorf("record %d: %w", i+1, err)}
		}
	}
	return Result{Foods: foods, Status: StatusLoaded}
}

func (s *Store) Save(foods []model.Food) error {
	if foods == nil {
		foods = []model.Food{}
	}
	b, err := json.Marshal(foods)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := writeFileAtomic(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Quarantine moves the data file aside so that the next Save cannot overwrite
// content Load could not read. The first backup is <path>.corrupt, later ones
// <path>.corrupt.1, .2, ...; an existing backup is never replaced.
// It returns the new path, or "" when there was no file to move.
func (s *Store) Quarantine() (string, error) {
	dst, err := s.freeBackupName()
	if err != nil {
		return "", fmt.Errorf("quarantine: %w", err)
	}
	if err := os.Rename(s.path, dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("quarantine: %w", err)
	}
	return dst, nil
}

func (s *Store) freeBackupName() (string, error) {
	base := s.path + ".corrupt"
	for i := 0; i < 1000; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s.%d", base, i)
		}
		if _, err := os.Lstat(name); errors.Is(err, os.ErrNotExist) {
			return name, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("too many backups of %s", s.path)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
