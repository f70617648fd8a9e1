package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmgilman/go/gitsource/errors"
)

func TestRun(t *testing.T) {
	res, err := New().Run(context.Background(), "echo", "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello world" {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
}

func TestRunNoArgs(t *testing.T) {
	if _, err := New().Run(context.Background()); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestRunFailure(t *testing.T) {
	res, err := New().Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	var execErr *ExecError
	if !stderrors.As(err, &execErr) {
		t.Fatalf("expected *ExecError, got %T", err)
	}
	if execErr.ExitCode != 3 || res.ExitCode != 3 {
		t.Errorf("exit code = %d/%d, want 3", execErr.ExitCode, res.ExitCode)
	}
	if strings.TrimSpace(execErr.Stderr) != "oops" {
		t.Errorf("stderr = %q", execErr.Stderr)
	}

	pe := AsPlatformError(err, "script failed")
	if pe.Code() != errors.CodeExecutionFailed {
		t.Errorf("code = %s", pe.Code())
	}
	if pe.Context()["stderr"] != "oops" {
		t.Errorf("context = %v", pe.Context())
	}
}

func TestWithDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	base := New()
	pinned := base.With(WithDir(dir))

	res, err := pinned.Run(context.Background(), "ls")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Stdout, "marker") {
		t.Errorf("ls output %q does not list marker", res.Stdout)
	}
	if base.Dir() != "" {
		t.Errorf("With modified the base command: dir = %q", base.Dir())
	}
	if pinned.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", pinned.Dir(), dir)
	}
}

func TestWithEnv(t *testing.T) {
	cmd := New(WithInheritEnv()).With(WithEnv(map[string]string{"GITSOURCE_TEST": "v1"}))
	res, err := cmd.Run(context.Background(), "sh", "-c", "echo $GITSOURCE_TEST")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "v1" {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestWithDisableColors(t *testing.T) {
	res, err := New(WithInheritEnv(), WithDisableColors()).Run(context.Background(), "sh", "-c", "echo $NO_COLOR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "1" {
		t.Errorf("NO_COLOR = %q", res.Stdout)
	}
}

func TestZeroCommand(t *testing.T) {
	var zero Command

	res, err := zero.Run(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("stdout = %q", res.Stdout)
	}

	cmd := zero.With(WithDisableColors(), WithEnv(map[string]string{"GITSOURCE_TEST": "v2"}), WithPassthrough())
	res, err = cmd.Run(context.Background(), "sh", "-c", "echo $NO_COLOR $GITSOURCE_TEST")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "1 v2" {
		t.Errorf("stdout = %q", res.Stdout)
	}

	// Applying options to the zero value directly must not panic either.
	WithEnv(map[string]string{"A": "b"})(&zero)
	if zero.env["A"] != "b" {
		t.Errorf("env = %v", zero.env)
	}
}

func TestWithTimeout(t *testing.T) {
	_, err := New(WithTimeout(50*time.Millisecond)).Run(context.Background(), "sleep", "5")
	var execErr *ExecError
	if !stderrors.As(err, &execErr) {
		t.Fatalf("expected *ExecError, got %v", err)
	}
	if !execErr.TimedOut() {
		t.Errorf("expected timeout, got %v", execErr.Err)
	}
	if code := AsPlatformError(err, "slow").Code(); code != errors.CodeTimeout {
		t.Errorf("code = %s, want %s", code, errors.CodeTimeout)
	}
}

func TestPassthrough(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := New(WithPassthrough(), WithStdout(&out), WithStderr(&errOut))
	res, err := cmd.Run(context.Background(), "sh", "-c", "echo a; echo b >&2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "a\n" || errOut.String() != "b\n" {
		t.Errorf("passthrough got %q / %q", out.String(), errOut.String())
	}
	if res.Stdout != "a\n" || res.Stderr != "b\n" {
		t.Errorf("capture got %q / %q", res.Stdout, res.Stderr)
	}
	if !strings.Contains(res.Combined, "a") || !strings.Contains(res.Combined, "b") {
		t.Errorf("combined = %q", res.Combined)
	}
}

type recordingExecutor struct {
	args []string
}

func (r *recordingExecutor) Run(_ context.Context, args ...string) (*Result, error) {
	r.args = args
	return &Result{}, nil
}

func TestWrapper(t *testing.T) {
	rec := &recordingExecutor{}
	git := NewWrapper(rec, "git")
	if _, err := git.Run(context.Background(), "status", "--short"); err != nil {
		t.Fatal(err)
	}
	if strings.Join(rec.args, " ") != "git status --short" {
		t.Errorf("args = %v", rec.args)
	}
}
