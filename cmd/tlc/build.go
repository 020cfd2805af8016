package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/lexer"
	"github.com/DrTomLLC/T-Programming-Language/internal/pipeline"
	"github.com/DrTomLLC/T-Programming-Language/internal/source"
	"github.com/DrTomLLC/T-Programming-Language/internal/tir"
	"github.com/DrTomLLC/T-Programming-Language/internal/tir/optimize"
)

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	emit := fs.String("emit", "", "dump an intermediate form: tokens, ast, or tir")
	noColor := fs.Bool("no-color", false, "disable colored output")
	fs.Parse(args)

	return compileCommand(fs.Args(), *emit, *noColor, false, false)
}

func runBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	emit := fs.String("emit", "", "dump an intermediate form: tokens, ast, or tir")
	noColor := fs.Bool("no-color", false, "disable colored output")
	opt := fs.Bool("O", false, "fold constants and sweep dead code before writing")
	fs.Parse(args)

	return compileCommand(fs.Args(), *emit, *noColor, true, *opt)
}

// compileCommand runs the pipeline over the requested units. With write set,
// each clean unit's lowered module is written next to its source as a .tir
// listing.
func compileCommand(args []string, emit string, noColor, write, opt bool) int {
	if noColor {
		pterm.DisableColor()
	}

	hooks, err := emitHooks(emit)
	if err != nil {
		pterm.Error.Println(err)
		return 2
	}

	units, err := collectUnits(args)
	if err != nil {
		pterm.Error.Println(err)
		return 1
	}

	interner := source.NewInterner()
	results, err := pipeline.CompileAll(context.Background(), units, hooks, interner)
	if err != nil {
		pterm.Error.Printfln("internal error: %v", err)
		return 2
	}

	formatter := diag.NewFormatter(os.Stderr, !noColor)
	for _, u := range units {
		formatter.AddSource(u.Filename, u.Source)
	}

	errors, warnings := 0, 0
	for _, r := range results {
		diag.SortByPosition(r.Diagnostics)
		formatter.FormatAll(r.Diagnostics)
		e, w := diag.Count(r.Diagnostics)
		errors += e
		warnings += w
	}

	if errors > 0 {
		pterm.Error.Printfln("%d error(s), %d warning(s)", errors, warnings)
		return 1
	}

	if write {
		for _, r := range results {
			if opt {
				optimize.Run(r.TIR)
			}
			out := tirPath(r.Filename)
			if err := os.WriteFile(out, []byte(r.TIR.PrettyPrint()), 0o644); err != nil {
				pterm.Error.Printfln("write %s: %v", out, err)
				return 1
			}
			pterm.Info.Printfln("wrote %s", out)
		}
	}

	if warnings > 0 {
		pterm.Warning.Printfln("%d file(s) ok, %d warning(s)", len(results), warnings)
	} else {
		pterm.Success.Printfln("%d file(s) ok", len(results))
	}
	return 0
}

// collectUnits resolves the command line to source units: explicit files, or
// the manifest's file list when none are given.
func collectUnits(args []string) ([]pipeline.Unit, error) {
	files := args
	if len(files) == 0 {
		m, err := LoadManifest(manifestName)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("no source files given and no %s found", manifestName)
			}
			return nil, err
		}
		files = m.Files()
	}

	units := make([]pipeline.Unit, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		units = append(units, pipeline.Unit{Filename: f, Source: string(data)})
	}
	return units, nil
}

// emitHooks maps --emit to a hook table dumping the chosen form on stdout.
// Units compile in parallel, so the dump is serialized per unit.
func emitHooks(emit string) (pipeline.Hooks, error) {
	var mu sync.Mutex
	switch emit {
	case "":
		return pipeline.Hooks{}, nil
	case "tokens":
		return pipeline.Hooks{
			OnTokens: func(unit string, tokens []lexer.Token) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Printf("; tokens %s\n", unit)
				for _, tok := range tokens {
					fmt.Printf("%-14s %q\n", tok.Type, tok.Lexeme)
				}
			},
		}, nil
	case "ast":
		return pipeline.Hooks{
			OnAST: func(unit string, tree *ast.Tree) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Printf("; ast %s\n%s", unit, ast.Print(tree))
			},
		}, nil
	case "tir":
		return pipeline.Hooks{
			OnTIR: func(unit string, module *tir.Module) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Printf("; tir %s\n%s", unit, module.PrettyPrint())
			},
		}, nil
	default:
		return pipeline.Hooks{}, fmt.Errorf("unknown emit form %q (want tokens, ast, or tir)", emit)
	}
}

func tirPath(srcPath string) string {
	if stem, ok := strings.CutSuffix(srcPath, ".t"); ok {
		return stem + ".tir"
	}
	return srcPath + ".tir"
}
