package git

import (
	"net/url"
)

// RedactURL hides the password of a URL carrying user info so fetch URLs
// with embedded tokens can be logged. Anything that does not parse as a URL,
// such as an scp-style address, is returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
