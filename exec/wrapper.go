package exec

import "context"

// Wrapper prefixes every Run with a fixed program name.
type Wrapper struct {
	executor Executor
	name     string
}

// NewWrapper returns a Wrapper that runs name through executor.
func NewWrapper(executor Executor, name string) *Wrapper {
	return &Wrapper{executor: executor, name: name}
}

// Run executes the wrapped program with args.
func (w *Wrapper) Run(ctx context.Context, args ...string) (*Result, error) {
	return w.executor.Run(ctx, append([]string{w.name}, args...)...)
}
