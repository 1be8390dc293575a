// Command tupa is the Tupã toolchain CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/tupa-lang/tupa/internal/config"
	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/driver"
	"github.com/tupa-lang/tupa/internal/logging"
)

const usage = `Usage: tupa [-config tupa.yaml] <command> [options]

Commands:
  lex <file>                                      Print the token stream
  parse [-json] <file>                            Print the AST
  check <file>                                    Type check a program
  codegen [-plan-only] <file>                     Emit LLVM IR or execution plans
  run -plan <file> -pipeline <name> -input <file> Execute a pipeline
  hash [-input <file>] <file>                     Print the audit hash
  repl                                            Start an interactive session
  lsp                                             Serve the language server protocol on stdio
`

// app carries the wired dependencies of one CLI invocation.
type app struct {
	drv    *driver.Driver
	log    *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tupa", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", config.DefaultPath, "path to the configuration file")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 1
	}

	a, err := newApp(*configPath, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer a.log.Sync() //nolint:errcheck

	command, rest := fs.Arg(0), fs.Args()[1:]
	var cmdErr error
	switch command {
	case "lex":
		cmdErr = a.runLex(rest)
	case "parse":
		cmdErr = a.runParse(rest)
	case "check":
		cmdErr = a.runCheck(rest)
	case "codegen":
		cmdErr = a.runCodegen(rest)
	case "run":
		cmdErr = a.runRun(rest)
	case "hash":
		cmdErr = a.runHash(rest)
	case "repl":
		cmdErr = a.runREPL()
	case "lsp":
		cmdErr = a.runLSP()
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", command)
		fs.Usage()
		return 1
	}
	if cmdErr != nil {
		a.report(cmdErr)
		return 1
	}
	return 0
}

// newApp wires configuration, logging and the driver through a dig
// container.
func newApp(configPath string, stdout, stderr io.Writer) (*app, error) {
	c := dig.New()
	providers := []any{
		func() (*config.Config, error) { return config.Load(configPath) },
		func(cfg *config.Config) (*zap.Logger, error) { return logging.New(cfg.Log, stderr) },
		driver.New,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, errors.Wrap(err, "failed to register provider")
		}
	}

	a := &app{stdin: os.Stdin, stdout: stdout, stderr: stderr}
	err := c.Invoke(func(d *driver.Driver, log *zap.Logger) {
		a.drv = d
		a.log = log
	})
	if err != nil {
		return nil, dig.RootCause(err)
	}
	return a, nil
}

// sourceError attaches the file a stage error came from.
type sourceError struct {
	err  error
	path string
	src  string
}

func (e *sourceError) Error() string { return e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

// report renders err on stderr, as a diagnostic when a stage produced it.
func (a *app) report(err error) {
	d, ok := driver.Diagnose(err)
	if !ok {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return
	}
	var src, path string
	var serr *sourceError
	if errors.As(err, &serr) {
		src, path = serr.src, serr.path
	}
	d.Span.Filename = path
	diag.NewFormatter(a.stderr).Format(d, src)
}
