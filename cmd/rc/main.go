// Command rc compiles resource files into Go source that registers itself
// with the resource store at program start.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strutworks/strut/pkg/resource"
)

// Exit codes of the rc binary.
const (
	exitUsage = 1 // bad arguments or unusable output path
	exitInput = 2 // input could not be read or parsed
	exitWrite = 3 // output could not be written
)

// exitError carries the process exit code alongside the cause.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func newCommand() *cobra.Command {
	var single bool
	var pkg string

	cmd := &cobra.Command{
		Use:   "rc <name> <input> <output.go>",
		Short: "compile resources into self-registering Go source",
		Long: `rc compiles resource files into a Go source file.

In the default mode the input is a resource definition: a configuration file
with a top-level group= key naming the resource group and one [file] group
per payload file, each with a filename= key and an optional alias=. The
generated file declares the compiled group and registers it from init(), so
importing the package makes the group available through the resource store.
The name argument must match the definition's group name.

With --single the input is an arbitrary file whose raw bytes are exported as
<Name>Data and <Name>Size, without touching the resource store.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return compile(args[0], args[1], args[2], pkg, single)
		},
	}
	cmd.Flags().BoolVar(&single, "single", false, "export the input file's raw bytes instead of a registered group")
	cmd.Flags().StringVar(&pkg, "package", "main", "package name of the generated file")
	return cmd
}

func compile(name, input, output, pkg string, single bool) error {
	if !strings.HasSuffix(output, ".go") {
		return &exitError{exitUsage, fmt.Errorf("output %s is not a .go file", output)}
	}
	if dir := filepath.Dir(output); dir != "." {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return &exitError{exitUsage, fmt.Errorf("output directory %s does not exist", dir)}
		}
	}

	var generated []byte
	if single {
		data, err := os.ReadFile(input)
		if err != nil {
			return &exitError{exitInput, err}
		}
		generated = resource.GenerateSingle(pkg, name, data)
	} else {
		group, entries, err := resource.ParseDefinition(input)
		if err != nil {
			return &exitError{exitInput, err}
		}
		if group != name {
			return &exitError{exitInput, fmt.Errorf("definition %s compiles group %q, not %q", input, group, name)}
		}
		compiled, err := resource.Compile(group, entries)
		if err != nil {
			return &exitError{exitInput, err}
		}
		generated = resource.GenerateGo(pkg, compiled)
	}

	if err := os.WriteFile(output, generated, 0o644); err != nil {
		return &exitError{exitWrite, err}
	}
	return nil
}

func run(args []string) int {
	cmd := newCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rc: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return exitUsage
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
