package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ErrUnknownCommand is returned for an unrecognized command name.
var ErrUnknownCommand = errors.New("unknown command")

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches the command in args and returns the process exit code.
// args[0] is the program name.
func runMain(args []string, env *Environment) int {
	loadDotEnv(env)

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]
	var err error
	switch {
	case cmd == "convert":
		err = runConvertCmd(ctx, rest, env)
	case looksLikeInput(cmd):
		// "rowdoc data.csv" is shorthand for "rowdoc convert data.csv".
		err = runConvertCmd(ctx, args[1:], env)
	case cmd == "preview":
		err = runPreviewCmd(rest, env)
	case cmd == "config":
		err = runConfigCmd(rest, env)
	case cmd == "doctor":
		return runDoctorCmd(rest, env)
	case cmd == "version", cmd == "--version":
		fmt.Fprintf(env.Stdout, "go-rowdoc %s\n", Version)
		return ExitSuccess
	case cmd == "help", cmd == "-h", cmd == "--help":
		return runHelp(rest, env)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
		printUsage(env.Stderr)
	}

	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// looksLikeInput reports whether a command-line word names a tabular file.
func looksLikeInput(arg string) bool {
	if strings.HasPrefix(arg, "-") {
		return false
	}
	switch lower := strings.ToLower(arg); {
	case strings.HasSuffix(lower, ".csv"),
		strings.HasSuffix(lower, ".tsv"),
		strings.HasSuffix(lower, ".xlsx"),
		strings.HasSuffix(lower, ".xlsm"):
		return true
	}
	return false
}

// loadDotEnv reads ROWDOC_* values from a .env file in the working directory.
// Variables already set in the environment win.
func loadDotEnv(env *Environment) {
	if err := godotenv.Load(env.DotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(env.Stderr, "warning: ignoring %s: %v\n", env.DotEnvPath, err)
	}
}
