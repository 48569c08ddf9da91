package lockstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"livecap/internal/services"
)

const component = "lockstore"

// DirStore keeps one marker file per source in a directory.
type DirStore struct {
	dir string
}

// NewDirStore returns a store rooted at dir. The directory is created on the
// first Acquire if it does not exist.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// Dir returns the marker directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// MarkerPath returns the marker file path for id. Ids that would need
// rewriting to fit in one path segment are refused with ErrInvalidID, so two
// distinct ids never share a marker.
func (s *DirStore) MarkerPath(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id+MarkerExt), nil
}

func (s *DirStore) Exists(id string) (bool, error) {
	path, err := s.MarkerPath(id)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, services.Wrap(services.ErrLockStore, component, "exists", id, err)
	}
}

func (s *DirStore) Acquire(id string, meta Marker) error {
	path, err := s.MarkerPath(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return services.Wrap(services.ErrLockStore, component, "acquire", "create lock directory", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return services.Wrap(services.ErrLockStore, component, "acquire", id, ErrHeld)
		}
		return services.Wrap(services.ErrLockStore, component, "acquire", id, err)
	}

	meta.ID = id
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	writeErr := encoder.Encode(meta)
	closeErr := file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		// A half-written marker would block the source until the next restart.
		_ = os.Remove(path)
		return services.Wrap(services.ErrLockStore, component, "acquire", "write marker "+id, err)
	}
	return nil
}

func (s *DirStore) Release(id string) error {
	path, err := s.MarkerPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrLockStore, component, "release", id, err)
	}
	return nil
}

func (s *DirStore) ClearAll() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, services.Wrap(services.ErrLockStore, component, "clear", "read lock directory", err)
	}
	removed := 0
	var errs []error
	for _, entry := range entries {
		if !isMarker(entry) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if len(errs) > 0 {
		return removed, services.Wrap(services.ErrLockStore, component, "clear", fmt.Sprintf("%d marker(s) not removed", len(errs)), errors.Join(errs...))
	}
	return removed, nil
}

func (s *DirStore) List() ([]Marker, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrLockStore, component, "list", "read lock directory", err)
	}
	markers := make([]Marker, 0, len(entries))
	for _, entry := range entries {
		if !isMarker(entry) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), MarkerExt)
		marker := Marker{ID: id}
		if data, err := os.ReadFile(filepath.Join(s.dir, entry.Name())); err == nil {
			var decoded Marker
			if json.Unmarshal(data, &decoded) == nil {
				marker = decoded
				if marker.ID == "" {
					marker.ID = id
				}
			}
		}
		if marker.AcquiredAt.IsZero() {
			if info, err := entry.Info(); err == nil {
				marker.AcquiredAt = info.ModTime().UTC()
			}
		}
		markers = append(markers, marker)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].ID < markers[j].ID })
	return markers, nil
}

func isMarker(entry fs.DirEntry) bool {
	return !entry.IsDir() && strings.HasSuffix(entry.Name(), MarkerExt)
}
