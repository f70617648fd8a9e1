package git

import (
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	platformerrors "github.com/jmgilman/go/gitsource/errors"
)

// BasicAuth authenticates HTTPS remotes with a username and password.
func BasicAuth(username, password string) Auth {
	return &http.BasicAuth{Username: username, Password: password}
}

// TokenAuth authenticates HTTPS remotes with an access token. GitHub and
// Bitbucket Server both accept a token as the password of any non-empty
// username.
func TokenAuth(token string) Auth {
	if token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "x-access-token", Password: token}
}

// SSHKeyAuth authenticates SSH remotes with a PEM encoded private key.
// password may be empty for unencrypted keys.
func SSHKeyAuth(user string, pemBytes []byte, password string) (Auth, error) {
	keys, err := ssh.NewPublicKeys(user, pemBytes, password)
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "failed to parse SSH key")
	}
	return keys, nil
}

// SSHKeyFile is SSHKeyAuth reading the key from path.
func SSHKeyFile(user, path, password string) (Auth, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, platformerrors.WrapWithContext(err, platformerrors.CodeInvalidConfig,
			"failed to read SSH key file", map[string]any{"path": path})
	}
	return SSHKeyAuth(user, pemBytes, password)
}
