// Package attempt turns a build part into a queued build attempt.
//
// The planner pins the attempt to the exact commit the branch points at when
// the attempt is created, so every part of a build tests the same tree even
// if the branch moves while the build runs. Delivering the message is left
// to an Enqueuer; this package has no queue transport of its own.
package attempt

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/refs"
)

// ErrRefNotFound is returned when the branch cannot be resolved.
var ErrRefNotFound = stderrors.New("branch head not found")

// Message is the payload a build worker receives.
type Message struct {
	Queue     string   `json:"queue"`
	AttemptID string   `json:"attempt_id"`
	Kind      string   `json:"kind"`
	Ref       string   `json:"ref"`
	Paths     []string `json:"paths"`
}

// Enqueuer delivers a message to its queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg Message) error
}

// Func adapts a function to an Enqueuer.
type Func func(ctx context.Context, msg Message) error

// Enqueue implements Enqueuer.
func (f Func) Enqueue(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Part is one slice of a build: a kind of test run over a set of paths on a
// queue.
type Part struct {
	Queue string
	Kind  string
	Paths []string
}

// QueueName is "{queue}-{kind}".
func (p Part) QueueName() string {
	return p.Queue + "-" + p.Kind
}

func (p Part) validate() error {
	var missing []string
	if p.Queue == "" {
		missing = append(missing, "queue")
	}
	if p.Kind == "" {
		missing = append(missing, "kind")
	}
	if len(p.Paths) == 0 {
		missing = append(missing, "paths")
	}
	if len(missing) > 0 {
		return errors.WithContext(
			errors.Newf(errors.CodeInvalidInput, "build part is missing %s", strings.Join(missing, ", ")),
			"kind", p.Kind)
	}
	return nil
}

// Planner resolves branches and enqueues attempts.
type Planner struct {
	Resolver refs.Resolver
	Enqueuer Enqueuer
	// NewID generates attempt IDs. Defaults to random UUIDs.
	NewID func() string
}

// Plan resolves branch on repo and enqueues an attempt for part pinned to
// the resolved commit. It returns the enqueued message.
func (p *Planner) Plan(ctx context.Context, repo refs.Repository, branch string, part Part) (*Message, error) {
	if err := part.validate(); err != nil {
		return nil, err
	}

	sha, ok := p.Resolver.ResolveBranchHead(ctx, repo, branch)
	if !ok {
		return nil, errors.WrapWithContext(ErrRefNotFound, errors.CodeNotFound, "cannot plan attempt",
			map[string]any{"branch": branch})
	}

	newID := p.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	msg := &Message{
		Queue:     part.QueueName(),
		AttemptID: newID(),
		Kind:      part.Kind,
		Ref:       sha,
		Paths:     part.Paths,
	}
	if err := p.Enqueuer.Enqueue(ctx, *msg); err != nil {
		return nil, errors.WrapWithContext(err, errors.GetCode(err), "failed to enqueue attempt",
			map[string]any{"queue": msg.Queue, "attempt_id": msg.AttemptID})
	}

	clog.FromContext(ctx).With("queue", msg.Queue, "attempt_id", msg.AttemptID).
		Infof("enqueued %s attempt at %s", msg.Kind, msg.Ref)
	return msg, nil
}
