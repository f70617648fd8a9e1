package provider

import (
	"fmt"
	"net/url"
	"strings"
)

// StashParser accepts only https://{host}/scm/{owner}/{name}.git. Credentials
// in the URL are rejected; use a netrc file or a token instead.
type StashParser struct{}

// Tag implements Parser.
func (StashParser) Tag() Tag { return Stash }

// Parse implements Parser.
func (StashParser) Parse(rawURL string) (Coordinates, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Coordinates{}, unrecognized(Stash, rawURL, "malformed url")
	}
	switch {
	case u.Scheme != "https":
		return Coordinates{}, unrecognized(Stash, rawURL, "only https urls are supported")
	case u.User != nil:
		return Coordinates{}, unrecognized(Stash, rawURL, "credentials in the url are not supported")
	case u.Host == "":
		return Coordinates{}, unrecognized(Stash, rawURL, "missing host")
	case u.RawQuery != "" || u.Fragment != "":
		return Coordinates{}, unrecognized(Stash, rawURL, "unexpected query or fragment")
	}

	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "scm" {
		return Coordinates{}, unrecognized(Stash, rawURL, "expected /scm/{project}/{repo}.git")
	}
	owner, file := parts[1], parts[2]
	name, ok := strings.CutSuffix(file, ".git")
	if owner == "" || !ok || name == "" {
		return Coordinates{}, unrecognized(Stash, rawURL, "expected /scm/{project}/{repo}.git")
	}

	return Coordinates{Host: u.Host, Owner: owner, Name: name}, nil
}

// APIBaseURL implements Parser.
func (StashParser) APIBaseURL(c Coordinates) string {
	return fmt.Sprintf("https://%s/rest/api/1.0/projects/%s/repos/%s", c.Host, c.Owner, c.Name)
}
