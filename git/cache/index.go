package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	platformerrors "github.com/jmgilman/go/gitsource/errors"
)

const indexVersion = "1"

// index is the on-disk metadata record. Trees and their git config are the
// source of truth; the index only feeds pruning and stats.
type index struct {
	Version string               `json:"version"`
	Entries map[string]*Metadata `json:"entries"`
	mu      sync.RWMutex
}

func newIndex() *index {
	return &index{Version: indexVersion, Entries: map[string]*Metadata{}}
}

// loadIndex reads path. A missing, unreadable or foreign-version file yields
// an empty index; the trees on disk stay valid either way.
func loadIndex(fs billy.Filesystem, path string) (*index, error) {
	data, err := util.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return newIndex(), nil
	}
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeCacheFailed, "failed to read cache index")
	}

	idx := newIndex()
	if err := json.Unmarshal(data, idx); err != nil || idx.Version != indexVersion {
		return newIndex(), nil
	}
	if idx.Entries == nil {
		idx.Entries = map[string]*Metadata{}
	}
	return idx, nil
}

// save writes the index through a temporary file and a rename so readers
// never see a partial document.
func (idx *index) save(fs billy.Filesystem, path string) error {
	idx.mu.RLock()
	data, err := json.MarshalIndent(idx, "", "  ")
	idx.mu.RUnlock()
	if err != nil {
		return platformerrors.Wrap(err, platformerrors.CodeInternal, "failed to marshal cache index")
	}

	tmp, err := util.TempFile(fs, filepath.Dir(path), "index.json.tmp-")
	if err != nil {
		return platformerrors.Wrap(err, platformerrors.CodeCacheFailed, "failed to create temporary index file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpPath)
		return platformerrors.Wrap(err, platformerrors.CodeCacheFailed, "failed to write temporary index file")
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpPath)
		return platformerrors.Wrap(err, platformerrors.CodeCacheFailed, "failed to close temporary index file")
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		_ = fs.Remove(tmpPath)
		return platformerrors.Wrap(err, platformerrors.CodeCacheFailed, "failed to replace index file")
	}
	return nil
}

// adopt replaces the entries of idx with those of other. other must not be
// used afterwards.
func (idx *index) adopt(other *index) {
	other.mu.RLock()
	entries := other.Entries
	other.mu.RUnlock()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.Entries = entries
}

func (idx *index) get(key string) (Metadata, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	md, ok := idx.Entries[key]
	if !ok {
		return Metadata{}, false
	}
	return *md, true
}

// record updates key after an ensure that performed action.
func (idx *index) record(key, fetchURL string, action Action, now time.Time) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	md, ok := idx.Entries[key]
	if !ok || action != ActionUpdated {
		rebuilds := 0
		if ok {
			rebuilds = md.Rebuilds
		}
		if action == ActionRebuilt {
			rebuilds++
		}
		md = &Metadata{Key: key, CreatedAt: now, Rebuilds: rebuilds}
		idx.Entries[key] = md
	}
	md.FetchURL = fetchURL
	md.LastFetch = now
	md.LastAccess = now
}

func (idx *index) delete(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.Entries, key)
}

// list returns copies sorted by key.
func (idx *index) list() []Metadata {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]Metadata, 0, len(idx.Entries))
	for _, md := range idx.Entries {
		out = append(out, *md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
