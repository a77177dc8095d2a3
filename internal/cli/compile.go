package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/shapejson/internal/encode"
	"github.com/roach88/shapejson/internal/schema"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Schema SchemaOptions
}

// CompileResult describes a compiled encoder tree.
type CompileResult struct {
	Shape string     `json:"shape"`
	Nodes []NodeInfo `json:"nodes"`
}

func (r CompileResult) String() string {
	return fmt.Sprintf("✓ Compiled %s (%d node(s))", r.Shape, len(r.Nodes))
}

// NodeInfo is one position in the compiled tree.
type NodeInfo struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a schema into an encoder tree",
		Long: `Compile a type schema into an encoder tree and print its shape.

The schema comes from a type string (--type) or a CUE definition
(--cue, --def). Compilation fails for map keys other than string and for
types that have no JSON encoding (decimal, date, uniontype, ...).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, cmd)
		},
	}

	addSchemaFlags(cmd, &opts.Schema)

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	desc, err := LoadSchema(opts.Schema)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded schema: %s", desc)

	root, err := encode.Compile(desc)
	if err != nil {
		return formatter.fail(ExitCommandError, compileErrorCode(err), err, schemaErrorDetails(err))
	}

	result := CompileResult{Shape: root.Shape().String()}
	schema.Walk(root.Shape(), func(path string, d schema.Descriptor) bool {
		result.Nodes = append(result.Nodes, NodeInfo{Path: path, Type: d.String()})
		return true
	})

	if err := formatter.Success(result); err != nil {
		return err
	}
	if formatter.Format != "json" && formatter.Verbose {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, "Nodes:")
		for _, n := range result.Nodes {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", n.Path, n.Type)
		}
	}
	return nil
}

// outputLoadError reports a LoadSchema failure as a command error.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		var details any
		if loadErr.Pos.IsValid() {
			details = map[string]any{
				"file":   loadErr.Pos.Filename(),
				"line":   loadErr.Pos.Line(),
				"column": loadErr.Pos.Column(),
			}
		}
		return formatter.fail(ExitCommandError, loadErr.Code, loadErr, details)
	}
	return formatter.fail(ExitCommandError, ErrCodeGeneric, err, nil)
}

// schemaErrorDetails exposes the failing path of an encode.SchemaError.
func schemaErrorDetails(err error) any {
	var se *encode.SchemaError
	if !errors.As(err, &se) {
		return nil
	}
	return map[string]string{
		"path":   se.Path,
		"reason": string(se.Code),
	}
}
