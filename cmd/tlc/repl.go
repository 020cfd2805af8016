package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pterm/pterm"

	"github.com/DrTomLLC/T-Programming-Language/internal/ast"
	"github.com/DrTomLLC/T-Programming-Language/internal/diag"
	"github.com/DrTomLLC/T-Programming-Language/internal/pipeline"
	"github.com/DrTomLLC/T-Programming-Language/internal/types"
)

const (
	historyFile = ".tlang_history"
	promptMain  = "t> "
	promptCont  = ".. "
	replUnit    = "<repl>"

	// Expression input is wrapped in a throwaway function so the regular
	// pipeline can run over it unchanged.
	replFn  = "repl_eval"
	replVar = "it"
)

func runRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	noColor := fs.Bool("no-color", false, "disable colored output")
	fs.Parse(args)
	if *noColor {
		pterm.DisableColor()
	}

	fmt.Println("T repl. Ctrl+D exits, :quit exits, :list shows the session.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := &session{noColor: *noColor}
	for {
		input, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch trimmed {
			case ":quit":
				return 0
			case ":list":
				for _, it := range s.items {
					fmt.Println(it)
				}
			default:
				fmt.Println("unknown command. :quit exits, :list shows the session.")
			}
			continue
		}

		s.handle(trimmed)
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))
	}
}

// readInput collects one logical input, continuing while brackets are open.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if bracketDepth(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

// bracketDepth counts unclosed brackets outside string and char literals.
func bracketDepth(src string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		}
	}
	return depth
}

// session holds the declarations accepted so far. Every input recompiles the
// whole session from source; at interactive sizes that is instant and keeps
// the pipeline stateless.
type session struct {
	items   []string
	noColor bool
}

func (s *session) source(extra string) string {
	var b strings.Builder
	for _, it := range s.items {
		b.WriteString(it)
		b.WriteString("\n")
	}
	b.WriteString(extra)
	b.WriteString("\n")
	return b.String()
}

func (s *session) report(src string, diags []diag.Diagnostic) {
	f := diag.NewFormatter(os.Stderr, !s.noColor)
	f.AddSource(replUnit, src)
	diag.SortByPosition(diags)
	f.FormatAll(diags)
}

// handle compiles one input. Declarations join the session and echo their
// lowered form; expressions echo their inferred type.
func (s *session) handle(input string) {
	if isItem(input) {
		s.handleItem(input)
		return
	}
	s.handleExpr(input)
}

func isItem(input string) bool {
	for _, kw := range []string{"fn ", "struct ", "enum ", "const ", "use "} {
		if strings.HasPrefix(input, kw) {
			return true
		}
	}
	return false
}

func (s *session) handleItem(input string) {
	src := s.source(input)
	r := pipeline.Compile(pipeline.Unit{Filename: replUnit, Source: src}, pipeline.Hooks{}, nil)
	if r.HasErrors() {
		s.report(src, r.Diagnostics)
		return
	}
	if r.Err != nil {
		pterm.Error.Printfln("internal error: %v", r.Err)
		return
	}

	s.items = append(s.items, input)
	if r.TIR != nil && len(r.TIR.Functions) > 0 {
		// Echo the lowered form of what was just defined.
		last := r.TIR.Functions[len(r.TIR.Functions)-1]
		if strings.HasPrefix(input, "fn "+last.Name) {
			fmt.Print(last.PrettyPrint())
			return
		}
	}
	pterm.Success.Println("defined")
}

func (s *session) handleExpr(input string) {
	input = strings.TrimSuffix(input, ";")
	wrapped := fmt.Sprintf("fn %s() {\n    let %s = %s;\n}", replFn, replVar, input)
	src := s.source(wrapped)

	unit := pipeline.Unit{Filename: replUnit, Source: src}
	tree, _, diags := pipeline.Parse(unit, pipeline.Hooks{})
	_, info, semaDiags := pipeline.ResolveAndCheck(unit, tree, pipeline.Hooks{})
	diags = append(diags, semaDiags...)
	if diag.HasErrors(diags) {
		s.report(src, diags)
		return
	}

	ty := replExprType(tree, info)
	fmt.Printf("%s : %s\n", replVar, ty)
}

// replExprType digs the wrapper's let initializer out of the tree and returns
// its inferred type as a string.
func replExprType(tree *ast.Tree, info *types.Info) string {
	for _, id := range tree.Items {
		item := tree.Item(id)
		if item.Kind != ast.ItemFn || item.Name.Name != replFn {
			continue
		}
		body := tree.Expr(item.Body)
		if len(body.Stmts) == 0 {
			break
		}
		stmt := tree.Stmt(body.Stmts[0])
		return info.Type(stmt.Value).String()
	}
	return "<unknown>"
}
