// Command zppc is the zpp compiler driver: it wires internal/mapper and
// internal/generator together with file resolution, flag parsing and
// diagnostic reporting, then (unless told to stop at IR) shells out to
// llc/opt to produce a native binary, per SPEC_FULL.md §4.10.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var flags buildFlags

	buildCmd := &cobra.Command{
		Use:   "build <root.zpp>",
		Short: "Compile a zpp program to a native binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(args[0], flags)
		},
	}
	buildCmd.Flags().BoolVar(&flags.debug, "debug", false, "build in debug mode (is_debug_build! is true)")
	buildCmd.Flags().BoolVar(&flags.release, "release", false, "build in release mode (is_debug_build! is false)")
	buildCmd.Flags().BoolVar(&flags.emitLLVM, "emit-llvm", false, "stop after emitting LLVM IR; skip llc/opt")
	buildCmd.Flags().StringVar(&flags.manifest, "manifest", "", "path to zpp.yaml (default: alongside the root file)")
	buildCmd.Flags().StringVarP(&flags.output, "output", "o", "", "output binary/IR path")

	root := &cobra.Command{
		Use:   "zppc",
		Short: "zpp compiler",
	}
	root.AddCommand(buildCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
