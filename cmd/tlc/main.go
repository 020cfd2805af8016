package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tlc <command> [options]\n")
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  check [files]   Parse, resolve, and type-check source files\n")
		fmt.Fprintf(os.Stderr, "  build [files]   Check and lower source files, writing .tir listings\n")
		fmt.Fprintf(os.Stderr, "  repl            Start an interactive session\n")
		fmt.Fprintf(os.Stderr, "\nWith no files, check and build read the tlang.toml manifest.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "check":
		os.Exit(runCheck(args))
	case "build":
		os.Exit(runBuild(args))
	case "repl":
		os.Exit(runRepl(args))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
