package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// findTool resolves an external LLVM tool, preferring an explicit
// override (a manifest's llc/opt field, or empty) and falling back to
// PATH. Unlike the teacher, this never guesses Homebrew install
// locations: a zpp.yaml Llc/Opt override exists for exactly that case.
func findTool(override, name string) (string, error) {
	if override != "" {
		return override, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH (and no manifest override set)", name)
	}
	return path, nil
}

// runOpt runs opt over irFile at the given optimization level ("0".."3"),
// writing the result back to irFile in place. A missing opt or a failed
// run is non-fatal: spec.md leaves optimisation entirely optional.
func runOpt(optPath, irFile, level string) error {
	pipeline := "default<O2>"
	switch level {
	case "0", "":
		return nil
	case "1":
		pipeline = "default<O1>"
	case "2":
		pipeline = "default<O2>"
	case "3":
		pipeline = "default<O3>"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	outFile := irFile + ".opt"
	cmd := exec.CommandContext(ctx, optPath, "-S", "-o", outFile, "-passes="+pipeline, irFile)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("opt failed: %w", err)
	}
	return os.Rename(outFile, irFile)
}

// runLLC compiles irFile to a native object file at objFile.
func runLLC(llcPath, irFile, objFile string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, llcPath, "-filetype=obj", "-o", objFile, irFile)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("llc failed: %w", err)
	}
	return nil
}

// linkObject links objFile plus libs (each passed as -l<name>) into output.
func linkObject(objFile, output string, libs []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	args := []string{"-o", output, objFile}
	for _, l := range libs {
		args = append(args, "-l"+l)
	}
	cmd := exec.CommandContext(ctx, "cc", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("linking failed: %w", err)
	}
	return nil
}
