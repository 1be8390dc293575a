package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/codegen/llvm"
	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/driver"
	"github.com/tupa-lang/tupa/internal/parser"
	"github.com/tupa-lang/tupa/internal/plan"
	"github.com/tupa-lang/tupa/internal/types"
)

const (
	promptMain  = "tupa> "
	promptCont  = "  ... "
	historyFile = ".tupa_history"
)

const replHelp = `Enter declarations (fn, enum, trait); each one is checked against the
session before it is kept.

Commands:
  :type <expr>   Print the type of an expression
  :ast           Print the session AST
  :llvm          Print LLVM IR for the session
  :plan          Print execution plans for the session
  :reset         Forget all declarations
  :help          Show this help
  :quit          Leave the REPL
`

// session accumulates declarations entered in the REPL. Every accepted input
// leaves src a program that parses and type checks.
type session struct {
	drv *driver.Driver
	src string
	out io.Writer
}

func (a *app) runREPL() error {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s := &session{drv: a.drv, out: a.stdout}
	fmt.Fprintln(a.stdout, "Tupã REPL. Type :help for help.")
	for {
		input, ok := readComplete(ln)
		if !ok {
			fmt.Fprintln(a.stdout)
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))
		quit, err := s.eval(input)
		if err != nil {
			a.reportIn(err, s.pending(input))
		}
		if quit {
			break
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

// readComplete reads lines until the buffer parses or fails for a reason
// other than running out of input.
func readComplete(ln *liner.State) (string, bool) {
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
			// Ctrl+C drops the pending input.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !needsMore(src) {
			return src, true
		}
	}
}

// needsMore reports whether src fails to parse only because it ends early.
func needsMore(src string) bool {
	_, err := parser.ParseProgram(src)
	var perr *parser.ParseError
	return errors.As(err, &perr) && perr.Kind == parser.ErrEOF
}

func (s *session) pending(input string) string {
	if strings.HasPrefix(strings.TrimSpace(input), ":") {
		return ""
	}
	return s.src + input
}

// eval handles one REPL input and reports whether the session should end.
func (s *session) eval(input string) (bool, error) {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, ":") {
		return s.command(trimmed)
	}

	candidate := s.src + input + "\n"
	prog, _, err := s.drv.Analyze(candidate)
	if err != nil {
		return false, err
	}
	s.src = candidate
	fmt.Fprintf(s.out, "ok (%d items)\n", len(prog.Items))
	return false, nil
}

func (s *session) command(line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":quit", ":exit":
		return true, nil
	case ":help":
		fmt.Fprint(s.out, replHelp)
	case ":reset":
		s.src = ""
		fmt.Fprintln(s.out, "session reset.")
	case ":type":
		if arg == "" {
			return false, errors.New("usage: :type <expr>")
		}
		expr, err := parser.ParseExpr(arg)
		if err != nil {
			return false, err
		}
		prog, err := s.drv.Parse(s.src)
		if err != nil {
			return false, err
		}
		ty, err := types.NewChecker(prog).TypeOf(expr, nil)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, ty)
	case ":ast":
		prog, err := s.drv.Parse(s.src)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, ast.Format(prog))
	case ":llvm":
		prog, err := s.drv.Parse(s.src)
		if err != nil {
			return false, err
		}
		ir, err := llvm.Generate(prog)
		if err != nil {
			return false, err
		}
		fmt.Fprint(s.out, ir)
	case ":plan":
		plans, err := s.drv.Plans(s.src)
		if err != nil {
			return false, err
		}
		data, err := plan.Marshal(plans)
		if err != nil {
			return false, err
		}
		_, err = s.out.Write(data)
		return false, err
	default:
		return false, errors.Errorf("unknown command %s, type :help for help", name)
	}
	return false, nil
}

// reportIn renders a REPL error against the source it refers to.
func (a *app) reportIn(err error, src string) {
	d, ok := driver.Diagnose(err)
	if !ok {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return
	}
	d.Span.Filename = "<repl>"
	diag.NewFormatter(a.stderr).Format(d, src)
}
