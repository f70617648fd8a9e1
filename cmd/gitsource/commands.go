package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/git/cache"
	"github.com/jmgilman/go/gitsource/workspace"
)

// ParseCmd prints what a URL parses to.
type ParseCmd struct {
	Provider string `help:"Hosting provider (stash, github)." default:"stash"`
	URL      string `arg:"" help:"Repository URL."`
}

// Run executes the parse command.
func (c *ParseCmd) Run(a *app) error {
	repo, err := a.repository(c.Provider, c.URL)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "host\t%s\n", repo.Host)
	fmt.Fprintf(w, "owner\t%s\n", repo.Owner)
	fmt.Fprintf(w, "name\t%s\n", repo.Name)
	fmt.Fprintf(w, "cache key\t%s\n", repo.CacheKey())
	fmt.Fprintf(w, "api\t%s\n", repo.APIBaseURL())
	return w.Flush()
}

// ResolveCmd prints the head commit of a branch.
type ResolveCmd struct {
	Provider string `help:"Hosting provider (stash, github)." default:"stash"`
	URL      string `arg:"" help:"Repository URL."`
	Branch   string `arg:"" help:"Branch name."`
}

// Run executes the resolve command.
func (c *ResolveCmd) Run(ctx context.Context, a *app) error {
	repo, err := a.repository(c.Provider, c.URL)
	if err != nil {
		return err
	}

	sha, ok := a.resolver().ResolveBranchHead(ctx, repo, c.Branch)
	if !ok {
		return errors.WithContext(
			errors.Newf(errors.CodeNotFound, "branch %q not found", c.Branch),
			"url", c.URL)
	}
	fmt.Println(sha)
	return nil
}

// RunCmd runs a command in the repository's cached tree.
type RunCmd struct {
	Provider string   `help:"Hosting provider (stash, github)." default:"stash"`
	Ref      string   `help:"Commit, branch or tag to check out first."`
	Clean    bool     `help:"Remove untracked files before running."`
	URL      string   `arg:"" help:"Repository URL."`
	Command  []string `arg:"" optional:"" passthrough:"" help:"Command and arguments."`
}

// Run executes the run command.
func (c *RunCmd) Run(ctx context.Context, a *app) error {
	repo, err := a.repository(c.Provider, c.URL)
	if err != nil {
		return err
	}
	mgr, err := a.workspace()
	if err != nil {
		return err
	}

	return mgr.WithRepo(ctx, repo, func(ctx context.Context, tree *workspace.Tree) error {
		if c.Clean {
			if err := tree.Clean(); err != nil {
				return err
			}
		}
		if c.Ref != "" {
			if _, err := tree.Checkout(ctx, c.Ref); err != nil {
				return err
			}
		}
		command := c.Command
		if len(command) > 0 && command[0] == "--" {
			command = command[1:]
		}
		if len(command) == 0 {
			fmt.Println(tree.Path())
			return nil
		}
		_, err := tree.Run(ctx, command[0], command[1:]...)
		return err
	})
}

// PruneCmd removes stale cache entries once.
type PruneCmd struct {
	OlderThan time.Duration `help:"Remove entries unused for this long. Defaults to the configured max age."`
	Match     string        `help:"Also remove entries whose key matches this glob."`
}

// Run executes the prune command.
func (c *PruneCmd) Run(ctx context.Context, a *app) error {
	reg, err := a.cache()
	if err != nil {
		return err
	}

	maxAge := c.OlderThan
	if maxAge == 0 {
		maxAge = a.cfg.PruneMaxAge()
	}
	strategies := []cache.PruneStrategy{cache.PruneOlderThan(maxAge), cache.PruneMissing()}
	if c.Match != "" {
		match, err := cache.PruneMatching(c.Match)
		if err != nil {
			return err
		}
		strategies = append(strategies, match)
	}

	removed, err := reg.Prune(ctx, strategies...)
	for _, key := range removed {
		fmt.Println(key)
	}
	return err
}

// GCCmd prunes on an interval until the process is interrupted.
type GCCmd struct {
	Interval time.Duration `help:"Time between prune passes." default:"1h"`
}

// Run executes the gc command.
func (c *GCCmd) Run(ctx context.Context, a *app) error {
	reg, err := a.cache()
	if err != nil {
		return err
	}

	clog.FromContext(ctx).Infof("pruning %s every %s", reg.Root(), c.Interval)
	stop := reg.StartGC(ctx, c.Interval, cache.PruneOlderThan(a.cfg.PruneMaxAge()), cache.PruneMissing())
	defer stop()

	<-ctx.Done()
	return nil
}

// StatsCmd prints cache statistics and entries.
type StatsCmd struct{}

// Run executes the stats command.
func (c *StatsCmd) Run(a *app) error {
	reg, err := a.cache()
	if err != nil {
		return err
	}
	stats, err := reg.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("root:    %s\nentries: %d\nsize:    %d bytes\n", reg.Root(), stats.Entries, stats.TotalSize)
	if stats.Entries == 0 {
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tLAST ACCESS\tREBUILDS\tURL")
	for _, md := range reg.List() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", md.Key, md.LastAccess.Format(time.RFC3339), md.Rebuilds, md.FetchURL)
	}
	return w.Flush()
}
