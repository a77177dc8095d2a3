package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/shapejson/internal/convert"
	"github.com/roach88/shapejson/internal/schema"
	"github.com/roach88/shapejson/internal/value"
)

// On-error policies for the convert command.
const (
	OnErrorFail = "fail" // stop at the first bad document
	OnErrorNull = "null" // emit null in its place
	OnErrorSkip = "skip" // drop it
)

// ValidOnError lists the accepted --on-error values.
var ValidOnError = []string{OnErrorFail, OnErrorNull, OnErrorSkip}

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	Schema      SchemaOptions
	Input       string // file path or "-"
	InputFormat string // json | yaml | msgpack; empty infers from Input
	Output      string // file path; empty writes to stdout
	Workers     int
	OnError     string
}

// ConvertSummary is reported once a run completes.
type ConvertSummary struct {
	Converted int    `json:"converted"`
	Nulled    int    `json:"nulled"`
	Skipped   int    `json:"skipped"`
	Output    string `json:"output,omitempty"`
}

func (s ConvertSummary) String() string {
	msg := fmt.Sprintf("✓ Converted %d document(s)", s.Converted)
	if s.Nulled > 0 || s.Skipped > 0 {
		msg += fmt.Sprintf(" (%d nulled, %d skipped)", s.Nulled, s.Skipped)
	}
	if s.Output != "" {
		msg += " to " + s.Output
	}
	return msg
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert documents to JSON through a compiled schema",
		Long: `Convert reads documents (JSON, YAML or MessagePack), binds each one to
the schema and writes its JSON encoding, one document per line.

Record fields are emitted in schema order, timestamps as UTC RFC 3339 and
binary as base64. Documents that do not fit the schema stop the run unless
--on-error is null or skip.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, cmd)
		},
	}

	addSchemaFlags(cmd, &opts.Schema)
	cmd.Flags().StringVar(&opts.Input, "input", "-", "input file, or - for stdin")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "input format (json|yaml|msgpack); inferred from --input when empty")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (default stdout)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "number of concurrent encoders")
	cmd.Flags().StringVar(&opts.OnError, "on-error", OnErrorFail, "policy for documents that do not fit (fail|null|skip)")

	return cmd
}

func runConvert(opts *ConvertOptions, cmd *cobra.Command) error {
	// Converted documents own stdout unless --output is set.
	status := cmd.ErrOrStderr()
	if opts.Output != "" {
		status = cmd.OutOrStdout()
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    status,
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if !slices.Contains(ValidOnError, opts.OnError) {
		return formatter.fail(ExitCommandError, ErrCodeGeneric,
			fmt.Errorf("invalid --on-error %q: must be one of %v", opts.OnError, ValidOnError), nil)
	}

	desc, err := LoadSchema(opts.Schema)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	conv, err := convert.New(desc, convert.WithLogger(logger))
	if err != nil {
		return formatter.fail(ExitCommandError, compileErrorCode(err), err, schemaErrorDetails(err))
	}

	in, closeIn, err := openInput(opts.Input, cmd.InOrStdin())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, err, nil)
	}
	defer closeIn()

	format := opts.InputFormat
	if format == "" {
		format = value.FormatFromPath(opts.Input)
	}
	dec, err := value.NewDecoder(format, in)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err, nil)
	}

	out, closeOut, err := openOutput(opts.Output, cmd.OutOrStdout())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeWriteFailed, err, nil)
	}

	formatter.VerboseLog("Converting %s (%s) with schema %s", inputName(opts.Input), format, desc)

	run := &convertRun{
		opts:   opts,
		desc:   desc,
		conv:   conv,
		logger: logger,
		out:    bufio.NewWriter(out),
	}
	if opts.Workers > 1 {
		err = run.batch(cmd, dec)
	} else {
		err = run.stream(cmd.Context(), dec)
	}
	if flushErr := run.out.Flush(); err == nil && flushErr != nil {
		err = &stepError{code: ErrCodeWriteFailed, doc: -1, err: flushErr}
	}
	if closeErr := closeOut(); err == nil && closeErr != nil {
		err = &stepError{code: ErrCodeWriteFailed, doc: -1, err: closeErr}
	}
	if err != nil {
		var se *stepError
		if errors.As(err, &se) {
			return formatter.fail(ExitFailure, se.code, se, nil)
		}
		return formatter.fail(ExitFailure, ErrCodeGeneric, err, nil)
	}

	summary := run.summary
	summary.Output = opts.Output
	logger.Debug("convert finished",
		"converted", summary.Converted,
		"nulled", summary.Nulled,
		"skipped", summary.Skipped)

	if opts.Output == "" && !opts.Verbose {
		return nil
	}
	return formatter.Success(summary)
}

// stepError tags a conversion failure with its error code.
type stepError struct {
	code string
	doc  int // -1 when not tied to a document
	err  error
}

func (e *stepError) Error() string {
	if e.doc >= 0 {
		return fmt.Sprintf("document %d: %v", e.doc, e.err)
	}
	return e.err.Error()
}

func (e *stepError) Unwrap() error {
	return e.err
}

type convertRun struct {
	opts    *ConvertOptions
	desc    schema.Descriptor
	conv    *convert.Converter
	logger  *slog.Logger
	out     *bufio.Writer
	buf     []byte
	summary ConvertSummary
}

// stream converts one document at a time in input order.
func (r *convertRun) stream(ctx context.Context, dec value.Decoder) error {
	for doc := 0; ; doc++ {
		if err := ctx.Err(); err != nil {
			return &stepError{code: ErrCodeGeneric, doc: doc, err: err}
		}
		raw, err := dec.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// The decoder cannot resync after a syntax error.
			return &stepError{code: ErrCodeDecode, doc: doc, err: err}
		}

		v, err := value.Bind(r.desc, raw)
		if err != nil {
			if err := r.handleFailure(doc, ErrCodeBind, err); err != nil {
				return err
			}
			continue
		}

		r.buf, err = r.conv.AppendJSON(r.buf[:0], v)
		if err != nil {
			if err := r.handleFailure(doc, ErrCodeEncode, err); err != nil {
				return err
			}
			continue
		}
		if err := r.writeLine(r.buf); err != nil {
			return err
		}
		r.summary.Converted++
	}
}

// batch decodes and binds every document, then encodes them concurrently.
// Bind failures follow the on-error policy; encode failures abort the batch.
func (r *convertRun) batch(cmd *cobra.Command, dec value.Decoder) error {
	docs, err := value.DecodeAll(dec)
	if err != nil {
		return &stepError{code: ErrCodeDecode, doc: -1, err: err}
	}

	values := make([]any, 0, len(docs))
	for doc, raw := range docs {
		v, err := value.Bind(r.desc, raw)
		if err != nil {
			if err := r.policy(doc, ErrCodeBind, err); err != nil {
				return err
			}
			if r.opts.OnError == OnErrorSkip {
				continue
			}
			// nil encodes as null under every schema.
			v = nil
		}
		values = append(values, v)
	}

	lines, err := r.conv.ConvertAll(cmd.Context(), values, r.opts.Workers)
	if err != nil {
		return &stepError{code: ErrCodeEncode, doc: -1, err: err}
	}
	for _, line := range lines {
		if err := r.writeLine([]byte(line)); err != nil {
			return err
		}
	}
	r.summary.Converted += len(lines) - r.summary.Nulled
	return nil
}

// policy applies the on-error policy to a failed document and counts it.
// It returns the failure itself under OnErrorFail.
func (r *convertRun) policy(doc int, code string, err error) error {
	switch r.opts.OnError {
	case OnErrorNull:
		r.logger.Warn("document replaced with null", "document", doc, "error", err)
		r.summary.Nulled++
		return nil
	case OnErrorSkip:
		r.logger.Warn("document skipped", "document", doc, "error", err)
		r.summary.Skipped++
		return nil
	default:
		return &stepError{code: code, doc: doc, err: err}
	}
}

// handleFailure applies the policy and writes the null replacement in stream mode.
func (r *convertRun) handleFailure(doc int, code string, err error) error {
	if err := r.policy(doc, code, err); err != nil {
		return err
	}
	if r.opts.OnError == OnErrorNull {
		return r.writeLine([]byte("null"))
	}
	return nil
}

func (r *convertRun) writeLine(b []byte) error {
	if _, err := r.out.Write(b); err != nil {
		return &stepError{code: ErrCodeWriteFailed, doc: -1, err: err}
	}
	if err := r.out.WriteByte('\n'); err != nil {
		return &stepError{code: ErrCodeWriteFailed, doc: -1, err: err}
	}
	return nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("input file not found: %s", path)
		}
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

func inputName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}
