package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rowType = "struct<id:bigint,tags:array<string>,attrs:map<string,double>>"

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func writeCUE(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestCompile_TypeString(t *testing.T) {
	stdout, _, err := execute(t, "", "compile", "--type", "array<int>")
	require.NoError(t, err)
	assert.Equal(t, "✓ Compiled array<int> (2 node(s))\n", stdout)
}

func TestCompile_Verbose(t *testing.T) {
	stdout, stderr, err := execute(t, "", "-v", "compile", "-t", rowType)
	require.NoError(t, err)

	newGoldie(t).Assert(t, "compile_verbose", []byte(stdout))
	assert.Contains(t, stderr, "Loaded schema: "+rowType)
}

func TestCompile_JSON(t *testing.T) {
	stdout, _, err := execute(t, "", "--format", "json", "compile", "-t", "map<string,struct<x:float>>")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   CompileResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "map<string,struct<x:float>>", resp.Data.Shape)
	assert.Equal(t, []NodeInfo{
		{Path: "$", Type: "map<string,struct<x:float>>"},
		{Path: "${}", Type: "struct<x:float>"},
		{Path: "${}.x", Type: "float"},
	}, resp.Data.Nodes)
}

func TestCompile_CUE(t *testing.T) {
	path := writeCUE(t, `
#Row: {
	id:    int @type(int32)
	name?: string
	at:    string @type(timestamp)
	tags: [...string]
}
`)

	stdout, _, err := execute(t, "", "compile", "--cue", path, "--def", "#Row")
	require.NoError(t, err)
	assert.Equal(t, "✓ Compiled struct<id:int,name:string,at:timestamp,tags:array<string>> (6 node(s))\n", stdout)
}

func TestCompile_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.cue")
	badDef := writeCUE(t, `#Row: {a: string}`)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"no_schema", []string{"compile"}, ErrCodeGeneric},
		{"both_schemas", []string{"compile", "-t", "int", "--cue", badDef}, ErrCodeGeneric},
		{"bad_type_string", []string{"compile", "-t", "array<int"}, ErrCodeTypeString},
		{"unknown_type", []string{"compile", "-t", "struct<a:money>"}, ErrCodeTypeString},
		{"missing_cue_file", []string{"compile", "--cue", missing}, ErrCodeNotFound},
		{"missing_definition", []string{"compile", "--cue", badDef, "--def", "#Nope"}, ErrCodeCUEDefinition},
		{"int_map_key", []string{"compile", "-t", "map<int,string>"}, ErrCodeUnsupportedKey},
		{"decimal", []string{"compile", "-t", "struct<price:decimal(10,2)>"}, ErrCodeUnsupportedShape},
		{"union", []string{"compile", "-t", "uniontype<int,string>"}, ErrCodeUnsupportedShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--format", "json"}, tt.args...)
			stdout, _, err := execute(t, "", args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, ExitStatus(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestCompile_SchemaErrorDetails(t *testing.T) {
	stdout, _, err := execute(t, "", "--format", "json", "compile", "-t", "struct<attrs:map<int,string>>")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "$.attrs: only maps with string keys can be converted to JSON, got map<int,string>", resp.Error.Message)
	assert.Equal(t, map[string]any{"path": "$.attrs", "reason": "UNSUPPORTED_KEY_TYPE"}, resp.Error.Details)
}

func TestCompile_TextError(t *testing.T) {
	stdout, _, err := execute(t, "", "compile", "-t", "map<int,string>")
	require.Error(t, err)
	assert.Equal(t, "Error [E103]: $: only maps with string keys can be converted to JSON, got map<int,string>\n", stdout)
}
