// Package refs resolves a branch of a remote repository to the commit it
// currently points at.
//
// Resolution never fails loudly. A resolver returns the SHA and true when the
// branch exists, and "" and false for every other outcome: a missing branch,
// an unexpected response body, a non-success status, a transport failure or
// a timeout. The reason for an absent result is logged at debug level on the
// context logger.
//
// Two implementations are provided. APIResolver asks the provider's REST API
// (GET {api}/git/refs/heads/{branch}); RemoteResolver lists the references
// advertised over the git protocol. Router picks one per provider.
package refs
