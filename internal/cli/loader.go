package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/shapejson/internal/encode"
	"github.com/roach88/shapejson/internal/schema"
)

// SchemaOptions selects where a command reads its Type Descriptor from.
// Exactly one of Type or CUEFile must be set.
type SchemaOptions struct {
	Type    string // Hive-style type string
	CUEFile string // CUE source file
	Def     string // CUE path inside CUEFile, e.g. "#Row"
}

// addSchemaFlags registers the shared schema flags on cmd.
func addSchemaFlags(cmd *cobra.Command, opts *SchemaOptions) {
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "type string, e.g. 'struct<a:int,b:array<string>>'")
	cmd.Flags().StringVar(&opts.CUEFile, "cue", "", "CUE file holding the schema")
	cmd.Flags().StringVar(&opts.Def, "def", "", "CUE path of the schema inside --cue (e.g. '#Row')")
}

// LoadError represents an error that occurred while loading a schema.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchema reads the descriptor selected by opts.
// All failures are returned as *LoadError.
func LoadSchema(opts SchemaOptions) (schema.Descriptor, error) {
	switch {
	case opts.Type != "" && opts.CUEFile != "":
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "--type and --cue are mutually exclusive"}
	case opts.Type != "":
		d, err := schema.Parse(opts.Type)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeTypeString, Message: err.Error()}
		}
		return d, nil
	case opts.CUEFile != "":
		if _, err := os.Stat(opts.CUEFile); err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema file not found: %s", opts.CUEFile)}
		}
		d, err := schema.LoadCUE(opts.CUEFile, opts.Def)
		if err != nil {
			var defErr *schema.DefinitionError
			if errors.As(err, &defErr) {
				return nil, &LoadError{Code: ErrCodeCUEDefinition, Message: fmt.Sprintf("%s: %s", defErr.Path, defErr.Message), Pos: defErr.Pos}
			}
			return nil, &LoadError{Code: ErrCodeCUEDefinition, Message: err.Error()}
		}
		return d, nil
	default:
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "a schema is required: pass --type or --cue"}
	}
}

// compileErrorCode maps an encode.Compile error to an error code.
func compileErrorCode(err error) string {
	switch {
	case errors.Is(err, encode.ErrUnsupportedKeyType):
		return ErrCodeUnsupportedKey
	case errors.Is(err, encode.ErrUnsupportedShape):
		return ErrCodeUnsupportedShape
	default:
		return ErrCodeGeneric
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error

	// Schema errors
	ErrCodeTypeString       = "E101" // Malformed type string
	ErrCodeCUEDefinition    = "E102" // CUE value is not a usable schema
	ErrCodeUnsupportedKey   = "E103" // Map key kind is not string
	ErrCodeUnsupportedShape = "E104" // Descriptor has no encoder (date, decimal, ...)

	// Conversion errors
	ErrCodeDecode = "E201" // Input document could not be decoded
	ErrCodeBind   = "E202" // Document does not fit the schema
	ErrCodeEncode = "E203" // Encoding or output failed
)
