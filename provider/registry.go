package provider

import (
	"sort"

	"github.com/jmgilman/go/gitsource/errors"
)

// Registry maps provider tags to parsers.
type Registry struct {
	parsers map[Tag]Parser
}

// NewRegistry returns a registry holding parsers. A later parser replaces an
// earlier one with the same tag.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{parsers: make(map[Tag]Parser, len(parsers))}
	for _, p := range parsers {
		r.parsers[p.Tag()] = p
	}
	return r
}

// Default returns a registry with the Stash and GitHub parsers.
func Default() *Registry {
	return NewRegistry(StashParser{}, GitHubParser{})
}

// Lookup returns the parser registered for tag.
func (r *Registry) Lookup(tag Tag) (Parser, error) {
	p, ok := r.parsers[tag]
	if !ok {
		return nil, errors.WithContext(errors.Newf(errors.CodeNotFound, "no parser registered for provider %q", tag),
			"provider", string(tag))
	}
	return p, nil
}

// Parse parses rawURL with the parser registered for tag.
func (r *Registry) Parse(tag Tag, rawURL string) (Coordinates, error) {
	p, err := r.Lookup(tag)
	if err != nil {
		return Coordinates{}, err
	}
	return p.Parse(rawURL)
}

// Tags lists the registered tags in order.
func (r *Registry) Tags() []Tag {
	tags := make([]Tag, 0, len(r.parsers))
	for t := range r.parsers {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
