// Package cache keeps one reusable working tree per repository under a root
// directory.
//
// Builds of the same project reuse the same tree, so only the first build
// pays for a full clone. Later builds fetch what changed.
//
// # Layout
//
//	<root>/
//	├── index.json          # informational metadata per entry
//	├── .locks/
//	│   ├── .index.lock     # serializes index updates across processes
//	│   └── <key>.lock      # cross-process lock per entry
//	└── <key>/              # working tree, remote "origin"
//
// Keys name directories directly. ValidateKey rejects empty keys, keys with
// path separators and keys starting with a dot, which keeps every entry a
// direct child of the root and away from the bookkeeping files.
//
// # Ensure
//
// Ensure brings the entry for a Source in line with the source's current
// fetch URL:
//
//   - no directory: clone
//   - origin equals the fetch URL: fetch branches and tags from origin
//   - origin differs, is missing, or the directory is not a repository:
//     delete the directory and clone again
//
// An existing entry is never repointed at a new URL in place. Afterwards
// the entry's origin URL always equals the fetch URL.
//
//	reg, err := cache.NewRegistry("/var/cache/gitsource")
//	entry, err := reg.Ensure(ctx, repo)
//	fmt.Println(entry.Path, entry.Action)
//
// A failed clone removes whatever it wrote, so the next Ensure starts from a
// missing directory rather than a half-written one.
//
// # Locking
//
// Every operation on an entry holds that entry's lock: an in-process mutex
// plus a gofrs/flock file lock so separate worker processes sharing a root
// also exclude each other. Unrelated keys never contend. Lease returns with
// the lock still held so a caller can work in the tree without another
// build fetching underneath it:
//
//	entry, release, err := reg.Lease(ctx, repo)
//	if err != nil {
//	    return err
//	}
//	defer release()
//
// Waiting for a lock is bounded by WithLockTimeout. Running out of time is
// CodeLockTimeout, which is retryable.
//
// # Index
//
// index.json records when each entry was created, fetched and last used.
// The trees themselves stay the source of truth: a missing or corrupt index
// is treated as empty. Every update re-reads the file under the index lock,
// applies one change and writes it back through a rename, so records written
// by other processes sharing the root are kept. List, Stats and Prune
// re-read the file before answering.
//
// # Maintenance
//
// Prune removes entries selected by any of its strategies and skips entries
// that are currently leased:
//
//	stale := cache.PruneOlderThan(30 * 24 * time.Hour)
//	forks, err := cache.PruneMatching("fork-*")
//	removed, err := reg.Prune(ctx, stale, forks)
//
// StartGC runs Prune on an interval until its context ends:
//
//	stop := reg.StartGC(ctx, time.Hour, stale, cache.PruneMissing())
//	defer stop()
//
// # Options
//
// Clone, fetch and lock waits have defaults (DefaultCloneTimeout,
// DefaultFetchTimeout, DefaultLockTimeout) that the With*Timeout options
// override. Credentials are chosen per source with WithAuth. Tests usually
// pass WithRemoteOperations to simulate failing remotes.
package cache
