// Package provider parses repository URLs into coordinates for each
// supported hosting provider.
//
// Providers are kept in an explicit Registry keyed by Tag; nothing is
// discovered by reflection or naming convention:
//
//	reg := provider.Default()
//	c, err := reg.Parse(provider.Stash, "https://stash.example.com/scm/myproject/myrepo.git")
//	// c == Coordinates{Host: "stash.example.com", Owner: "myproject", Name: "myrepo"}
//
// Parsing is pure. A URL a provider does not accept fails with an error
// matching ErrUnrecognizedURL and carrying CodeUnrecognizedURL.
package provider

import (
	stderrors "errors"

	"github.com/jmgilman/go/gitsource/errors"
)

// Tag names a hosting provider.
type Tag string

const (
	// Stash is Atlassian Stash / Bitbucket Server.
	Stash Tag = "stash"
	// GitHub is github.com or GitHub Enterprise.
	GitHub Tag = "github"
)

// ErrUnrecognizedURL is matched by every parse failure.
var ErrUnrecognizedURL = stderrors.New("unrecognized repository url")

// Coordinates identify a repository on its host.
type Coordinates struct {
	Host  string
	Owner string
	Name  string
}

// Parser understands the URL shapes of one provider.
type Parser interface {
	// Tag returns the provider this parser belongs to.
	Tag() Tag
	// Parse extracts coordinates from rawURL.
	Parse(rawURL string) (Coordinates, error)
	// APIBaseURL returns the root of the provider's REST API for c.
	APIBaseURL(c Coordinates) string
}

func unrecognized(tag Tag, rawURL, reason string) error {
	return errors.WrapWithContext(ErrUnrecognizedURL, errors.CodeUnrecognizedURL, reason, map[string]any{
		"provider": string(tag),
		"url":      rawURL,
	})
}
