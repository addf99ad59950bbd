package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tartampluch/go-nlcep/internal/config"
	"github.com/tartampluch/go-nlcep/internal/engine"
)

// main is the application entry point.
// It delegates execution to runMain so that deferred calls (closing the log
// file) run before the process terminates.
func main() {
	os.Exit(runMain(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// runMain executes the command line and maps the outcome to an exit code:
// config.ExitCodeParseFailure when the input could not be parsed,
// config.ExitCodeError for any other failure.
func runMain(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// Create a root context that cancels on SIGINT (Ctrl+C) or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := &cliApp{stdin: stdin, stdout: stdout, stderr: stderr}
	defer app.close()

	root := app.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	var pe *engine.ParseError
	switch {
	case err == nil:
		return config.ExitCodeSuccess
	case errors.As(err, &pe):
		// Already reported to the user by the command.
		return config.ExitCodeParseFailure
	default:
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		_, _ = fmt.Fprintln(stderr, err)
		return config.ExitCodeError
	}
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo(logger *slog.Logger) {
	logger.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger. Logs go to stderr so that
// stdout carries only command output; logFile, when set, receives a copy.
func setupLogging(stderr io.Writer, level slog.Level, debugMode bool, logFile string) (*slog.Logger, io.Closer) {
	writers := []io.Writer{stderr}
	var closer io.Closer

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			closer = f
		} else {
			_, _ = fmt.Fprintf(stderr, config.MsgLogWarning, config.ErrLogFile, logFile, err)
		}
	}

	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts))
	slog.SetDefault(logger)
	return logger, closer
}
