package driver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/gen"
	"github.com/you-not-fish/adlc/internal/ir"
	"github.com/you-not-fish/adlc/internal/layout"
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types2"
)

// Analysis is the outcome of the front end.
type Analysis struct {
	File *syntax.File

	// Info and Layout are nil after syntax errors. Program is nil if any
	// error was reported.
	Info    *types2.Info
	Layout  *layout.Info
	Program *ir.Program

	Diags []*diag.Diagnostic
}

// HasErrors reports whether any diagnostic is an error.
func (a *Analysis) HasErrors() bool { return hasErrors(a.Diags) }

// Result is the outcome of a compilation.
type Result struct {
	Analysis *Analysis
	Diags    []*diag.Diagnostic // front end and generation, sorted
	Outputs  []*gen.Result      // one per requested target; nil if nothing was written
}

func (r *Result) HasErrors() bool { return hasErrors(r.Diags) }

func hasErrors(ds []*diag.Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}

func (cfg *Config) logger() *slog.Logger {
	if cfg == nil || cfg.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cfg.Logger
}

// Analyze runs the front end over src. Diagnostics are reported in the
// analysis, not as an error; the error is an *InternalError if a phase
// panicked. Syntax errors stop the analysis after parsing. Otherwise
// every phase up to encoding validation runs, and the IR is built only
// if none of them reported an error. cfg may be nil.
func Analyze(filename string, src io.Reader, cfg *Config) (a *Analysis, err error) {
	log := cfg.logger()
	phase := "parse"
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, &InternalError{Phase: phase, Value: r, Stack: debug.Stack()}
		}
	}()

	var bag diag.Bag
	a = &Analysis{}
	start := time.Now()
	file, _ := syntax.Parse(filename, src, func(pos syntax.Pos, msg string) {
		bag.Add(diag.NewAt(diag.SyntaxError, syntax.Span{Start: pos, End: pos}, "%s", msg))
	})
	a.File = file
	log.Debug("parsed", "file", filename, "decls", len(file.Decls), "elapsed", time.Since(start))
	if bag.HasErrors() {
		a.Diags = bag.Diagnostics()
		return a, nil
	}

	conf := &types2.Config{Error: bag.Add}
	if cfg != nil {
		conf.Workers = cfg.Workers
	}
	a.Info = types2.NewInfo()

	phase = "resolve"
	start = time.Now()
	types2.Resolve(file, conf, a.Info)
	log.Debug("resolved", "elapsed", time.Since(start))

	phase = "check"
	start = time.Now()
	types2.Check(file, conf, a.Info)
	log.Debug("checked", "elapsed", time.Since(start))

	phase = "layout"
	start = time.Now()
	a.Layout, _ = layout.Validate(file, &layout.Config{Error: bag.Add}, a.Info)
	log.Debug("validated encodings", "encodings", len(a.Layout.Encodings), "elapsed", time.Since(start))

	if !bag.HasErrors() {
		phase = "build"
		start = time.Now()
		a.Program = ir.Build(file, a.Info, a.Layout)
		log.Debug("built IR", "bodies", len(a.Program.Bodies()), "elapsed", time.Since(start))
	}
	a.Diags = bag.Diagnostics()
	return a, nil
}

// Compile analyzes src and generates the targets named by cfg.
//
// Unknown targets are reported as a *ConfigError before src is read.
// Errors in the input are reported as diagnostics of the result; in that
// case nothing is written. Compiler faults are returned as
// *InternalError.
func Compile(ctx context.Context, filename string, src io.Reader, cfg Config) (*Result, error) {
	targets, err := cfg.targets()
	if err != nil {
		return nil, err
	}
	log := cfg.logger()

	a, err := Analyze(filename, src, &cfg)
	if err != nil {
		return nil, err
	}
	res := &Result{Analysis: a, Diags: a.Diags}
	if a.Program == nil || len(targets) == 0 {
		return res, nil
	}

	start := time.Now()
	outs, diags, err := gen.Run(ctx, a.Program, targets, gen.Options{
		OutDir:  cfg.OutDir,
		Version: cfg.Version,
		Workers: cfg.Workers,
		Logger:  log,
	})
	var perr *gen.PanicError
	if errors.As(err, &perr) {
		return nil, &InternalError{Phase: "generate " + perr.Target, Value: perr.Value, Stack: perr.Stack}
	}
	if err != nil {
		return nil, err
	}

	var bag diag.Bag
	bag.AddAll(a.Diags)
	bag.AddAll(diags)
	res.Diags = bag.Diagnostics()
	res.Outputs = outs
	log.Debug("generated", "targets", targetNames(targets), "elapsed", time.Since(start))
	return res, nil
}
