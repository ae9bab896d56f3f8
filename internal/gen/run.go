package gen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/ir"
)

// Options configures a generation run.
type Options struct {
	OutDir  string // root of the per-target output directories
	Version string // compiler version recorded in file headers

	// Workers bounds the number of targets generated at once; 0 runs
	// every target concurrently.
	Workers int

	Logger *slog.Logger // nil discards

	// NewRenderer returns the renderer of a target; nil uses a
	// TemplateRenderer over the target's templates.
	NewRenderer func(t Target, m Meta) (Renderer, error)
}

// Result is the output of one target.
type Result struct {
	Target string
	Dir    string // where the files were written
	Files  []File // sorted by path
}

// PanicError is a panic raised while generating a target.
type PanicError struct {
	Target string
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("target %s panicked: %v", e.Target, e.Value)
}

// Run generates every target for p.
//
// Targets are first checked against the features they do not support;
// any use stops the run before anything is emitted. Targets are then
// generated concurrently and their diagnostics collected. If any
// diagnostic is an error, or generation fails, nothing is written.
// Otherwise each target directory is replaced atomically.
//
// The diagnostics are returned sorted. The error is non-nil only for
// failures that are not diagnostics: I/O errors, renderer errors and
// panics, which are returned as *PanicError.
func Run(ctx context.Context, p *ir.Program, targets []Target, opts Options) ([]*Result, []*diag.Diagnostic, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	var bag diag.Bag

	uses := Scan(p)
	for _, t := range targets {
		checkFeatures(t, uses, &bag)
	}
	if bag.HasErrors() {
		return nil, bag.Diagnostics(), nil
	}

	results := make([]*Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, t := range targets {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Target: t.Name(), Value: r, Stack: debug.Stack()}
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res, err := generate(t, p, opts, &bag)
			if err != nil {
				return err
			}
			results[i] = res
			log.Debug("generated target", "target", t.Name(), "files", len(res.Files), "elapsed", time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, bag.Diagnostics(), err
	}
	if bag.HasErrors() {
		return nil, bag.Diagnostics(), nil
	}

	w, _ := errgroup.WithContext(ctx)
	for _, res := range results {
		res.Dir = filepath.Join(opts.OutDir, res.Target)
		w.Go(func() error {
			if err := writeTarget(opts.OutDir, res.Target, res.Files); err != nil {
				return fmt.Errorf("writing target %s: %w", res.Target, err)
			}
			log.Debug("wrote target", "target", res.Target, "dir", res.Dir, "files", len(res.Files))
			return nil
		})
	}
	if err := w.Wait(); err != nil {
		return nil, bag.Diagnostics(), err
	}
	return results, bag.Diagnostics(), nil
}

// generate runs the emitters of t and renders their units. It renders
// nothing if an emitter reported an error.
func generate(t Target, p *ir.Program, opts Options, bag *diag.Bag) (*Result, error) {
	meta := Meta{Version: opts.Version, ISA: p.Name, Target: t.Name()}
	var r Renderer
	var err error
	if opts.NewRenderer != nil {
		r, err = opts.NewRenderer(t, meta)
	} else {
		r, err = NewTemplateRenderer(t.Templates(), meta)
	}
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", t.Name(), err)
	}

	c := &Context{Program: p, Target: t.Name(), Version: opts.Version, bag: bag}
	var units []Unit
	for _, emit := range capabilities(t) {
		units = append(units, emit(c)...)
	}
	res := &Result{Target: t.Name()}
	if c.errors > 0 {
		return res, nil
	}

	seen := make(map[string]bool, len(units))
	for _, u := range units {
		if err := checkPath(t.Name(), u.Path); err != nil {
			return nil, err
		}
		if seen[u.Path] {
			return nil, fmt.Errorf("target %s: %s emitted twice", t.Name(), u.Path)
		}
		seen[u.Path] = true
		data, err := r.Render(u)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", t.Name(), err)
		}
		res.Files = append(res.Files, File{Path: u.Path, Data: data})
	}
	slices.SortFunc(res.Files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	return res, nil
}
