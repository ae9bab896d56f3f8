// Package main implements the adlc command, the architecture description
// compiler.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/driver"
	"github.com/you-not-fish/adlc/internal/gen"
	"github.com/you-not-fish/adlc/internal/ir"
	"github.com/you-not-fish/adlc/internal/syntax"
)

// Compiler flags
var (
	targets     = flag.String("target", "", "Comma-separated targets to generate (see -list-targets)")
	output      = flag.String("o", "out", "Output root; each target writes <root>/<target>/")
	emitAST     = flag.Bool("emit-ast", false, "Output AST")
	astFormat   = flag.String("ast-format", "text", "AST output format (text, json or spew)")
	emitIR      = flag.Bool("emit-ir", false, "Output IR of every function, relocation and instruction")
	listTargets = flag.Bool("list-targets", false, "List the available targets")
	trace       = flag.Bool("trace", false, "Output timing trace")
	workers     = flag.Int("workers", 0, "Bound on concurrent checking and generation (0 = default)")
	version     = flag.Bool("version", false, "Print version")
)

// Version is recorded in the header of every generated file.
const Version = "0.1.0-dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "adlc %s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: adlc [options] <file.adl>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Printf("adlc version %s\n", Version)
		fmt.Printf("go version %s\n", runtime.Version())
		os.Exit(driver.ExitOK)
	}

	if *listTargets {
		os.Exit(runListTargets())
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "error: expected exactly one input file")
		fmt.Fprintln(os.Stderr, "usage: adlc [options] <file.adl>")
		os.Exit(driver.ExitConfig)
	}
	filename := args[0]

	if *emitAST {
		os.Exit(runEmitAST(filename))
	}
	if *emitIR {
		os.Exit(runEmitIR(filename))
	}
	os.Exit(runCompile(filename))
}

// config returns the driver configuration selected by the flags.
func config() driver.Config {
	cfg := driver.Config{
		OutDir:  *output,
		Workers: *workers,
		Version: Version,
	}
	for _, name := range strings.Split(*targets, ",") {
		if name = strings.TrimSpace(name); name != "" {
			cfg.Targets = append(cfg.Targets, name)
		}
	}
	if *trace {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return cfg
}

// runListTargets prints every registered target with its capabilities.
func runListTargets() int {
	for _, t := range driver.Targets {
		fmt.Printf("%-10s %s\n", t.Name(), strings.Join(gen.Capabilities(t), ", "))
		if u := t.Unsupported(); u != 0 {
			fmt.Printf("%-10s unsupported: %s\n", "", u)
		}
	}
	return driver.ExitOK
}

// runEmitAST parses the input file and outputs the AST.
func runEmitAST(filename string) int {
	var dump func(*syntax.File) error
	switch *astFormat {
	case "text":
		dump = func(f *syntax.File) error { return syntax.Fprint(os.Stdout, f) }
	case "json":
		dump = func(f *syntax.File) error { return syntax.FprintJSON(os.Stdout, f) }
	case "spew":
		cs := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
		dump = func(f *syntax.File) error {
			cs.Fdump(os.Stdout, f)
			return nil
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unknown AST format %q\n", *astFormat)
		return driver.ExitConfig
	}

	var errs []string
	ast, err := syntax.ParseFile(filename, func(pos syntax.Pos, msg string) {
		errs = append(errs, fmt.Sprintf("%s: %s", pos, msg))
	})
	if ast == nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return driver.ExitErrors
	}

	// Print errors first
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e)
	}

	if err := dump(ast); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return driver.ExitErrors
	}

	if len(errs) > 0 {
		return driver.ExitErrors
	}
	return driver.ExitOK
}

// runEmitIR analyzes the input file and outputs the IR of every body.
func runEmitIR(filename string) int {
	f, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return driver.ExitErrors
	}
	defer f.Close()

	cfg := config()
	a, err := driver.Analyze(filename, f, &cfg)
	if err != nil {
		return reportError(err)
	}
	diag.Fprint(os.Stderr, a.Diags)
	if a.Program == nil {
		return driver.ExitErrors
	}

	for i, fn := range a.Program.Bodies() {
		if i > 0 {
			fmt.Println()
		}
		ir.Fprint(os.Stdout, fn)
	}
	return driver.ExitOK
}

// runCompile compiles the input file for the requested targets.
func runCompile(filename string) int {
	cfg := config()
	if len(cfg.Targets) == 0 {
		fmt.Fprintln(os.Stderr, "error: no target; use -target (see -list-targets)")
		return driver.ExitConfig
	}

	f, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return driver.ExitErrors
	}
	defer f.Close()

	res, err := driver.Compile(context.Background(), filename, f, cfg)
	if err != nil {
		return reportError(err)
	}
	diag.Fprint(os.Stderr, res.Diags)
	if code := driver.ExitCode(res, nil); code != driver.ExitOK {
		return code
	}
	if *trace {
		for _, o := range res.Outputs {
			fmt.Fprintf(os.Stderr, "%s: %d file(s) in %s\n", o.Target, len(o.Files), o.Dir)
		}
	}
	return driver.ExitOK
}

// reportError prints a failure that is not a diagnostic and returns its
// exit status. Internal errors carry the stack of the panic.
func reportError(err error) int {
	fmt.Fprintf(os.Stderr, "adlc: %v\n", err)
	if ie, ok := err.(*driver.InternalError); ok {
		fmt.Fprintf(os.Stderr, "%s\n", ie.Stack)
	}
	return driver.ExitCode(nil, err)
}
