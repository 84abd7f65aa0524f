package main

import (
	"fmt"
	"os"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	if len(args) == 0 {
		printUsage()
		return 2, nil
	}

	switch args[0] {
	case "check":
		return runCheck(args[1:])
	case "resolve":
		return runResolve(args[1:])
	case "refresh":
		return runRefresh(args[1:])
	case "stats":
		return runStats(args[1:])
	case "export":
		return runExport(args[1:])
	case "serve-mcp":
		return runServeMCP(args[1:])
	case "version", "-version", "--version":
		fmt.Println(version)
		return 0, nil
	case "help", "-h", "--help":
		printUsage()
		return 0, nil
	default:
		printUsage()
		return 2, fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `vigil — incremental freshness and consistency engine for the knowledge index

Usage:
  vigil check [-workspace dir] [-ref git-ref] [-format text|json|junit]
  vigil resolve [-workspace dir] <file>
  vigil refresh [-workspace dir]
  vigil stats [-workspace dir]
  vigil export [-workspace dir] [-format json|mermaid] [-o file]
  vigil serve-mcp [-workspace dir] [-addr host:port]
  vigil version

Exit codes for check: 0 pass/warn, 1 fail, 2 unchecked.
`)
}
