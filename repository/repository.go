// Package repository holds the record describing one remote repository.
//
// A Repository is built from a provider tag and a URL and carries everything
// the cache, the ref resolvers and the workspace manager ask of it.
package repository

import (
	"fmt"
	"strings"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/provider"
)

// Repository describes a remote repository.
type Repository struct {
	Provider provider.Tag
	// URL is the canonical remote URL the repository was created from.
	URL   string
	Host  string
	Owner string
	Name  string
	// CacheName is the stable cache key. It survives URL changes.
	CacheName string
	// FetchURLOverride replaces URL as the clone/fetch address when set.
	FetchURLOverride string
	// APIURLOverride replaces the provider's API base URL when set.
	APIURLOverride string

	apiBase string
}

// Option configures a Repository.
type Option func(*Repository)

// WithCacheName pins the cache key, for instance to keep a cache across a
// repository rename.
func WithCacheName(name string) Option {
	return func(r *Repository) {
		r.CacheName = name
	}
}

// WithFetchURL sets a fetch address that differs from the canonical URL,
// such as a mirror.
func WithFetchURL(u string) Option {
	return func(r *Repository) {
		r.FetchURLOverride = u
	}
}

// WithAPIURL overrides the provider's REST API base.
func WithAPIURL(u string) Option {
	return func(r *Repository) {
		r.APIURLOverride = strings.TrimSuffix(u, "/")
	}
}

// New parses rawURL with the parser registered for tag and returns the
// repository it describes.
func New(reg *provider.Registry, tag provider.Tag, rawURL string, opts ...Option) (*Repository, error) {
	p, err := reg.Lookup(tag)
	if err != nil {
		return nil, err
	}
	c, err := p.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	r := &Repository{
		Provider: tag,
		URL:      rawURL,
		Host:     c.Host,
		Owner:    c.Owner,
		Name:     c.Name,
		apiBase:  p.APIBaseURL(c),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.CacheName == "" {
		r.CacheName = SanitizeKey(fmt.Sprintf("%s-%s-%s", c.Host, c.Owner, c.Name))
	}
	if r.CacheName == "" {
		return nil, errors.WithContext(
			errors.New(errors.CodeInvalidInput, "repository has an empty cache name"),
			"url", rawURL,
		)
	}

	return r, nil
}

// CacheKey returns the cache entry name.
func (r *Repository) CacheKey() string { return r.CacheName }

// FetchURL returns the address to clone and fetch from.
func (r *Repository) FetchURL() string {
	if r.FetchURLOverride != "" {
		return r.FetchURLOverride
	}
	return r.URL
}

// APIBaseURL returns the provider REST API root for this repository.
func (r *Repository) APIBaseURL() string {
	if r.APIURLOverride != "" {
		return r.APIURLOverride
	}
	return r.apiBase
}

// ProviderTag returns the hosting provider.
func (r *Repository) ProviderTag() string { return string(r.Provider) }

// String returns host/owner/name.
func (r *Repository) String() string {
	return r.Host + "/" + r.Owner + "/" + r.Name
}

// SanitizeKey lowercases s and replaces anything outside [a-z0-9._-] with a
// dash. Leading dots and dashes are trimmed so the result never names a
// hidden directory.
func SanitizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range strings.ToLower(s) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
			b.WriteRune(c)
		default:
			b.WriteByte('-')
		}
	}
	return strings.TrimLeft(b.String(), ".-")
}
