package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/zpp-lang/zppc/internal/config"
	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/generator"
	"github.com/zpp-lang/zppc/internal/logging"
	"github.com/zpp-lang/zppc/internal/mapper"
)

// buildFlags mirrors the `zppc build` command line, per SPEC_FULL.md §4.10.
type buildFlags struct {
	debug     bool
	release   bool
	emitLLVM  bool
	manifest  string
	output    string
}

// diagnosable is implemented by every stage's own *Error type.
type diagnosable interface {
	ToDiagnostic() *diag.Diagnostic
}

func runBuild(rootFile string, flags buildFlags) error {
	manifestPath := flags.manifest
	if manifestPath == "" {
		manifestPath = filepath.Join(filepath.Dir(rootFile), "zpp.yaml")
	}
	manifest, err := config.Load(manifestPath)
	if err != nil {
		return err
	}

	debug := manifest.IsDebug()
	if flags.debug {
		debug = true
	}
	if flags.release {
		debug = false
	}

	log := logging.New(debug)
	defer log.Sync()

	formatter := diag.NewFormatter(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()))

	loader := newFileLoader()
	rootAST, err := loader.parseFile(rootFile)
	if err != nil {
		if d, ok := err.(diagnosable); ok {
			formatter.Format(d.ToDiagnostic())
			os.Exit(1)
		}
		return err
	}

	log.Debugw("parsed root module", "path", rootFile)

	m := mapper.New(loader.load)
	rootMod, merr := m.Map(rootAST)
	if merr != nil {
		formatter.Format(merr.ToDiagnostic())
		os.Exit(1)
	}

	log.Debugw("mapped module graph", "root", rootMod.Path)

	gen := generator.New(generator.Options{Debug: debug}, log)
	if gerr := gen.GenerateMain(rootMod); gerr != nil {
		formatter.Format(gerr.ToDiagnostic())
		os.Exit(1)
	}

	log.Debugw("generated IR module")

	ir := gen.IR.String()

	base := strings.TrimSuffix(filepath.Base(rootFile), filepath.Ext(rootFile))
	output := flags.output
	if output == "" {
		output = base
	}

	if flags.emitLLVM {
		llFile := output
		if !strings.HasSuffix(llFile, ".ll") {
			llFile += ".ll"
		}
		return os.WriteFile(llFile, []byte(ir), 0o644)
	}

	llFile, err := os.CreateTemp("", "zpp_*.ll")
	if err != nil {
		return fmt.Errorf("creating temp IR file: %w", err)
	}
	defer os.Remove(llFile.Name())
	if _, err := llFile.WriteString(ir); err != nil {
		llFile.Close()
		return fmt.Errorf("writing IR: %w", err)
	}
	llFile.Close()

	llcPath, err := findTool(manifest.LLC, "llc")
	if err != nil {
		return err
	}
	optPath, optErr := findTool(manifest.Opt, "opt")
	if optErr == nil {
		if err := runOpt(optPath, llFile.Name(), optLevel(debug)); err != nil {
			log.Warnw("optimisation skipped", "error", err)
		}
	}

	objFile := llFile.Name() + ".o"
	if err := runLLC(llcPath, llFile.Name(), objFile); err != nil {
		return err
	}
	defer os.Remove(objFile)

	libs := append([]string{}, manifest.Link...)
	libs = append(libs, gen.Libraries()...)
	if err := linkObject(objFile, output, libs); err != nil {
		return err
	}

	fmt.Printf("built %s\n", output)
	return nil
}

// optLevel picks the opt pipeline level: debug builds use level 0 and
// release builds level 2; no manifest key changes it. This mirrors the intrinsic
// is_debug_build!/is_release_build! split spec.md's §9 names.
func optLevel(debug bool) string {
	if debug {
		return "0"
	}
	return "2"
}
