package refs

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v67/github"
	"golang.org/x/sync/singleflight"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/metrics"
)

// DefaultTimeout bounds a single API lookup.
const DefaultTimeout = 30 * time.Second

// APIResolver resolves branches through the provider's REST API using a
// go-github client. The request URL is built from the repository's API base,
// so the same resolver serves github.com, GitHub Enterprise and any API that
// answers in the same shape.
type APIResolver struct {
	client  *github.Client
	timeout time.Duration
	metrics *metrics.Recorder
	group   singleflight.Group
}

type apiConfig struct {
	client     *github.Client
	httpClient *http.Client
	token      string
	timeout    time.Duration
	metrics    *metrics.Recorder
}

// APIOption configures an APIResolver.
type APIOption func(*apiConfig)

// WithToken authenticates requests with a bearer token.
func WithToken(token string) APIOption {
	return func(c *apiConfig) {
		c.token = token
	}
}

// WithClient uses a preconfigured go-github client. WithToken and
// WithHTTPClient are ignored when it is set.
func WithClient(client *github.Client) APIOption {
	return func(c *apiConfig) {
		c.client = client
	}
}

// WithHTTPClient sets the HTTP client the go-github client is built on.
func WithHTTPClient(hc *http.Client) APIOption {
	return func(c *apiConfig) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each lookup. Zero or negative keeps the default.
func WithTimeout(d time.Duration) APIOption {
	return func(c *apiConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics counts lookups by outcome.
func WithMetrics(m *metrics.Recorder) APIOption {
	return func(c *apiConfig) {
		c.metrics = m
	}
}

// NewAPIResolver returns a resolver backed by the REST API.
func NewAPIResolver(opts ...APIOption) *APIResolver {
	cfg := &apiConfig{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(cfg)
	}

	client := cfg.client
	if client == nil {
		client = github.NewClient(cfg.httpClient)
		if cfg.token != "" {
			client = client.WithAuthToken(cfg.token)
		}
	}

	return &APIResolver{
		client:  client,
		timeout: cfg.timeout,
		metrics: cfg.metrics,
	}
}

// ResolveBranchHead implements Resolver. It issues
// GET {repo.APIBaseURL()}/git/refs/heads/{branch} and returns object.sha from
// the response verbatim.
func (a *APIResolver) ResolveBranchHead(ctx context.Context, repo Repository, branch string) (string, bool) {
	u := strings.TrimSuffix(repo.APIBaseURL(), "/") + "/git/refs/heads/" + escapeBranch(branch)
	log := clog.FromContext(ctx).With("branch", branch, "url", u)

	if branch == "" {
		log.Debug("empty branch name")
		a.metrics.Resolution("api", false)
		return "", false
	}

	// Callers asking for the same ref at once share one request. The shared
	// request is detached from any single caller's cancellation and bounded
	// by the resolver timeout; each caller still stops waiting on its own
	// context.
	ch := a.group.DoChan(u, func() (any, error) {
		return a.lookup(context.WithoutCancel(ctx), u)
	})

	var (
		v   any
		err error
	)
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		log.Debugf("branch head not resolved: %v", err)
		a.metrics.Resolution("api", false)
		return "", false
	}

	sha := v.(string)
	a.metrics.Resolution("api", true)
	return sha, true
}

func (a *APIResolver) lookup(ctx context.Context, u string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := a.client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidInput, "failed to build ref request")
	}

	ref := new(github.Reference)
	resp, err := a.client.Do(ctx, req, ref)
	if err != nil {
		return "", wrapHTTPError(err, resp, "ref lookup failed")
	}

	sha := ref.GetObject().GetSHA()
	if sha == "" {
		return "", errors.New(errors.CodeNotFound, "response carries no object.sha")
	}
	return sha, nil
}
