package cache

import (
	"time"

	"github.com/gobwas/glob"

	"github.com/jmgilman/go/gitsource/errors"
)

// Source is what the registry needs to know about a repository.
type Source interface {
	// CacheKey names the entry directory. It must stay stable when the
	// repository's URL changes.
	CacheKey() string
	// FetchURL is the address the entry must be cloned from.
	FetchURL() string
}

// Action reports what Ensure did to an entry.
type Action string

const (
	// ActionCloned means the entry did not exist and was cloned.
	ActionCloned Action = "cloned"
	// ActionUpdated means the entry was fetched from its unchanged origin.
	ActionUpdated Action = "updated"
	// ActionRebuilt means the entry was deleted and cloned again.
	ActionRebuilt Action = "rebuilt"
)

// Entry is a prepared cache entry.
type Entry struct {
	Key      string
	Path     string
	FetchURL string
	Action   Action
}

// Metadata is the index record kept per entry.
type Metadata struct {
	Key        string    `json:"key"`
	FetchURL   string    `json:"fetch_url"`
	CreatedAt  time.Time `json:"created_at"`
	LastFetch  time.Time `json:"last_fetch"`
	LastAccess time.Time `json:"last_access"`
	Rebuilds   int       `json:"rebuilds"`
}

// Stats summarizes the registry.
type Stats struct {
	Entries      int
	TotalSize    int64
	OldestAccess *time.Time
	NewestAccess *time.Time
}

// PruneStrategy selects entries for removal.
type PruneStrategy interface {
	// ShouldPrune reports whether the entry recorded by md goes. exists
	// tells whether its directory is still on disk.
	ShouldPrune(md *Metadata, exists bool) bool
}

type pruneOlderThan struct {
	maxAge time.Duration
}

func (p *pruneOlderThan) ShouldPrune(md *Metadata, _ bool) bool {
	return time.Since(md.LastAccess) > p.maxAge
}

type pruneMissing struct{}

func (pruneMissing) ShouldPrune(_ *Metadata, exists bool) bool {
	return !exists
}

// PruneOlderThan selects entries not used within maxAge.
func PruneOlderThan(maxAge time.Duration) PruneStrategy {
	return &pruneOlderThan{maxAge: maxAge}
}

type pruneMatching struct {
	g glob.Glob
}

func (p pruneMatching) ShouldPrune(md *Metadata, _ bool) bool {
	return p.g.Match(md.Key)
}

// PruneMatching selects entries whose key matches the glob pattern, for
// example "github.com-square-*".
func PruneMatching(pattern string) (PruneStrategy, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidInput, "invalid key pattern",
			map[string]any{"pattern": pattern})
	}
	return pruneMatching{g: g}, nil
}

// PruneMissing selects index records whose directory no longer exists.
func PruneMissing() PruneStrategy {
	return pruneMissing{}
}
