package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/lsp"
	"github.com/tupa-lang/tupa/internal/plan"
)

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// readSource reads the single positional file argument of a command.
func readSource(fs *flag.FlagSet) (path, src string, err error) {
	if fs.NArg() != 1 {
		return "", "", errors.Errorf("usage: tupa %s <file>", fs.Name())
	}
	path = fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to read %s", path)
	}
	return path, string(data), nil
}

func (a *app) parseArgs(name string, args []string) (*flag.FlagSet, string, string, error) {
	fs := a.newFlagSet(name)
	if err := fs.Parse(args); err != nil {
		return nil, "", "", err
	}
	path, src, err := readSource(fs)
	return fs, path, src, err
}

func (a *app) runLex(args []string) error {
	_, path, src, err := a.parseArgs("lex", args)
	if err != nil {
		return err
	}
	toks, err := a.drv.Lex(src)
	if err != nil {
		return &sourceError{err: err, path: path, src: src}
	}
	for _, tok := range toks {
		fmt.Fprintf(a.stdout, "%d..%d\t%s\t%q\n", tok.Span.Start, tok.Span.End, tok.Type, tok.Literal)
	}
	return nil
}

func (a *app) runParse(args []string) error {
	fs := a.newFlagSet("parse")
	asJSON := fs.Bool("json", false, "print the AST as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, src, err := readSource(fs)
	if err != nil {
		return err
	}
	prog, err := a.drv.Parse(src)
	if err != nil {
		return &sourceError{err: err, path: path, src: src}
	}
	if *asJSON {
		return a.writeJSON(prog)
	}
	fmt.Fprintln(a.stdout, ast.Format(prog))
	return nil
}

func (a *app) runCheck(args []string) error {
	_, path, src, err := a.parseArgs("check", args)
	if err != nil {
		return err
	}
	if _, _, err := a.drv.Analyze(src); err != nil {
		return &sourceError{err: err, path: path, src: src}
	}
	fmt.Fprintln(a.stdout, "OK")
	return nil
}

func (a *app) runCodegen(args []string) error {
	fs := a.newFlagSet("codegen")
	planOnly := fs.Bool("plan-only", false, "emit execution plans instead of LLVM IR")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, src, err := readSource(fs)
	if err != nil {
		return err
	}

	if *planOnly {
		plans, err := a.drv.Plans(src)
		if err != nil {
			return &sourceError{err: err, path: path, src: src}
		}
		data, err := plan.Marshal(plans)
		if err != nil {
			return err
		}
		_, err = a.stdout.Write(data)
		return err
	}

	ir, err := a.drv.Codegen(src)
	if err != nil {
		return &sourceError{err: err, path: path, src: src}
	}
	fmt.Fprint(a.stdout, ir)
	return nil
}

func (a *app) runRun(args []string) error {
	fs := a.newFlagSet("run")
	planPath := fs.String("plan", "", "execution plan file produced by `codegen -plan-only`")
	pipeline := fs.String("pipeline", "", "name of the pipeline to run")
	inputPath := fs.String("input", "", "JSON input file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *planPath == "" || *pipeline == "" || *inputPath == "" {
		return errors.New("usage: tupa run -plan <file> -pipeline <name> -input <file>")
	}

	planFile, err := os.ReadFile(*planPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read plan %s", *planPath)
	}
	input, err := os.ReadFile(*inputPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read input %s", *inputPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, _, err := a.drv.Run(ctx, planFile, *pipeline, input)
	if a.drv.Config().Runtime.Metrics {
		a.dumpMetrics(a.drv.Registry())
	}
	if err != nil {
		return err
	}
	if err := a.writeJSON(res); err != nil {
		return err
	}
	if !res.Passed {
		return errors.Errorf("pipeline %s violated its constraints", *pipeline)
	}
	return nil
}

func (a *app) runHash(args []string) error {
	fs := a.newFlagSet("hash")
	inputPath := fs.String("input", "", "JSON input file to include in the hash")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, src, err := readSource(fs)
	if err != nil {
		return err
	}

	var input []byte
	if *inputPath != "" {
		if input, err = os.ReadFile(*inputPath); err != nil {
			return errors.Wrapf(err, "failed to read input %s", *inputPath)
		}
	}
	sum, err := a.drv.Hash(src, input)
	if err != nil {
		return &sourceError{err: err, path: path, src: src}
	}
	fmt.Fprintln(a.stdout, sum)
	return nil
}

// runLSP serves the language server on stdin/stdout until the client exits.
func (a *app) runLSP() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	srv := lsp.NewServer(a.drv, a.stdin, a.stdout, a.log.Named("lsp"))
	return srv.Run(ctx)
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// dumpMetrics writes the run's metrics to stderr in the text exposition
// format.
func (a *app) dumpMetrics(g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		a.log.Warn("failed to gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(a.stderr, mf); err != nil {
			a.log.Warn("failed to write metrics", zap.Error(err))
			return
		}
	}
}
