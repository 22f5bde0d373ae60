package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "run", "run-once":
		return runOnce(args[1:])
	case "daemon":
		return runDaemon(args[1:])
	case "preview":
		return runPreview(args[1:])
	case "evaluate":
		return runEvaluate(args[1:])
	case "serve":
		return runServe(args[1:])
	case "hash-token":
		return runHashToken(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "autopub CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  autopub <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health      Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  run         Execute one ingest-and-publish run")
	fmt.Fprintln(os.Stderr, "  run-once    Alias for run")
	fmt.Fprintln(os.Stderr, "  daemon      Run on the configured cadence until stopped")
	fmt.Fprintln(os.Stderr, "  preview     Run one item per source through plan/draft/review without publishing")
	fmt.Fprintln(os.Stderr, "  evaluate    Run the dedup decision engine against one candidate")
	fmt.Fprintln(os.Stderr, "  serve       Start the admin API server")
	fmt.Fprintln(os.Stderr, "  hash-token  Generate or hash an admin API token")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"autopub <command> -h\" for command-specific flags.")
}
