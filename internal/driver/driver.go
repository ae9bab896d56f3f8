// Package driver runs the compilation pipeline: parse, resolve, check,
// validate encodings, build the IR and generate the requested targets.
package driver

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/you-not-fish/adlc/internal/gen"
	"github.com/you-not-fish/adlc/internal/gen/dump"
	"github.com/you-not-fish/adlc/internal/gen/iss"
	"github.com/you-not-fish/adlc/internal/gen/lcb"
)

// Targets is the registry of code generation targets.
var Targets = []gen.Target{
	iss.New(),
	lcb.New(),
	dump.New(),
}

// Lookup returns the registered target called name, or nil.
func Lookup(name string) gen.Target {
	for _, t := range Targets {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// TargetNames returns the names of the registered targets.
func TargetNames() []string { return targetNames(Targets) }

// Config configures a compilation.
type Config struct {
	Targets []string // names of the targets to generate
	OutDir  string   // root of the per-target output directories
	Workers int      // bound on concurrent checking and generation; 0 picks a default
	Version string   // recorded in the headers of generated files

	Logger *slog.Logger // phase timings at debug level; nil discards
}

// ConfigError reports an invalid configuration. It is returned before
// any input is read.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Msg }

// InternalError reports a compiler fault: a panic in some phase.
type InternalError struct {
	Phase string
	Value any
	Stack []byte
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error in %s: %v", e.Phase, e.Value)
}

// targets resolves the target names of cfg, in registry order and
// without duplicates.
func (cfg *Config) targets() ([]gen.Target, error) {
	var unknown []string
	want := make(map[string]bool)
	for _, name := range cfg.Targets {
		if Lookup(name) == nil {
			unknown = append(unknown, name)
			continue
		}
		want[name] = true
	}
	if len(unknown) > 0 {
		return nil, &ConfigError{Msg: fmt.Sprintf("unknown target %s (known: %s)",
			strings.Join(unknown, ", "), strings.Join(TargetNames(), ", "))}
	}
	var out []gen.Target
	for _, t := range Targets {
		if want[t.Name()] {
			out = append(out, t)
		}
	}
	if len(out) > 0 && cfg.OutDir == "" {
		return nil, &ConfigError{Msg: "no output directory"}
	}
	return out, nil
}

// Exit statuses of the command.
const (
	ExitOK       = 0
	ExitErrors   = 1
	ExitConfig   = 2
	ExitInternal = 3
)

// ExitCode returns the exit status for the outcome of Compile.
func ExitCode(res *Result, err error) int {
	var cfgErr *ConfigError
	var intErr *InternalError
	switch {
	case errors.As(err, &cfgErr):
		return ExitConfig
	case errors.As(err, &intErr):
		return ExitInternal
	case err != nil:
		return ExitErrors
	case res != nil && res.HasErrors():
		return ExitErrors
	}
	return ExitOK
}

func targetNames(ts []gen.Target) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name()
	}
	return names
}
