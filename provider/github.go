package provider

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// scpLike matches git@host:owner/name(.git).
var scpLike = regexp.MustCompile(`^(?:[\w.-]+@)?([\w.-]+):([\w.-]+)/([\w.-]+?)(?:\.git)?/?$`)

// GitHubParser accepts the clone URLs GitHub hands out:
//
//	https://{host}/{owner}/{name}[.git]
//	git@{host}:{owner}/{name}[.git]
//	ssh://git@{host}[:port]/{owner}/{name}[.git]
//	git://{host}/{owner}/{name}[.git]
type GitHubParser struct{}

// Tag implements Parser.
func (GitHubParser) Tag() Tag { return GitHub }

// Parse implements Parser.
func (GitHubParser) Parse(rawURL string) (Coordinates, error) {
	if !strings.Contains(rawURL, "://") {
		m := scpLike.FindStringSubmatch(rawURL)
		if m == nil {
			return Coordinates{}, unrecognized(GitHub, rawURL, "not a url or scp-style address")
		}
		return Coordinates{Host: m[1], Owner: m[2], Name: m[3]}, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Coordinates{}, unrecognized(GitHub, rawURL, "malformed url")
	}

	host := u.Host
	switch u.Scheme {
	case "https":
		if u.User != nil {
			return Coordinates{}, unrecognized(GitHub, rawURL, "credentials in the url are not supported")
		}
	case "ssh", "git":
		host = u.Hostname()
	default:
		return Coordinates{}, unrecognized(GitHub, rawURL, fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	if host == "" {
		return Coordinates{}, unrecognized(GitHub, rawURL, "missing host")
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 {
		return Coordinates{}, unrecognized(GitHub, rawURL, "expected /{owner}/{repo}")
	}
	name := strings.TrimSuffix(parts[1], ".git")
	if parts[0] == "" || name == "" {
		return Coordinates{}, unrecognized(GitHub, rawURL, "expected /{owner}/{repo}")
	}

	return Coordinates{Host: host, Owner: parts[0], Name: name}, nil
}

// APIBaseURL implements Parser. github.com is served from api.github.com;
// Enterprise hosts serve the API under /api/v3.
func (GitHubParser) APIBaseURL(c Coordinates) string {
	if c.Host == "github.com" {
		return fmt.Sprintf("https://api.github.com/repos/%s/%s", c.Owner, c.Name)
	}
	return fmt.Sprintf("https://%s/api/v3/repos/%s/%s", c.Host, c.Owner, c.Name)
}
