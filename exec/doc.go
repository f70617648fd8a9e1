// Package exec runs local commands with an explicit working directory.
//
// A build worker runs its steps inside a cached working tree. Changing the
// process working directory for that would race between concurrent builds,
// so every Command carries its own directory and environment instead.
//
// # Commands
//
// A Command is immutable: With returns a copy carrying extra options, so one
// base executor can be shared between goroutines and pinned to different
// directories without any of them touching the process working directory.
//
//	base := exec.New(exec.WithInheritEnv(), exec.WithDisableColors())
//	tree := base.With(exec.WithDir("/var/cache/gitsource/web"))
//	res, err := tree.Run(ctx, "make", "test")
//
// The zero Command is usable and behaves like New with no options except
// that passthrough output has nowhere to go until WithStdout and WithStderr
// are set.
//
// # Environment
//
// By default a Command built with New starts from an empty environment plus
// the variables given with WithEnv. WithInheritEnv starts from the parent
// environment instead. WithDisableColors sets NO_COLOR, TERM=dumb and the
// CLICOLOR family so tool output stays readable in build logs.
//
//	cmd := exec.New(
//	    exec.WithInheritEnv(),
//	    exec.WithEnv(map[string]string{"GIT_TERMINAL_PROMPT": "0"}),
//	)
//
// # Output
//
// Output is always captured into the Result, separately and interleaved.
// WithPassthrough additionally streams it to the configured writers, which
// default to os.Stdout and os.Stderr:
//
//	res, err := cmd.With(exec.WithPassthrough()).Run(ctx, "go", "test", "./...")
//	fmt.Println(res.ExitCode)
//
// # Timeouts
//
// WithTimeout bounds each Run on top of the caller's context. When either
// ends the process is killed. ExecError.TimedOut reports whether a deadline
// was the reason.
//
// # Errors
//
// A command that cannot start or exits non-zero returns both its Result and
// an *ExecError. AsPlatformError turns that into a platform error carrying
// the command line, directory, exit code and stderr:
//
//	if _, err := cmd.Run(ctx, "make"); err != nil {
//	    return exec.AsPlatformError(err, "build step failed")
//	}
//
// # Wrappers
//
// Wrapper prepends a fixed program name, which keeps call sites short for
// tools such as git:
//
//	git := exec.NewWrapper(tree, "git")
//	res, err := git.Run(ctx, "rev-parse", "HEAD")
package exec
