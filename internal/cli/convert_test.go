package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

const rowDocs = `{"id":1,"tags":["a","b"],"attrs":{"z":1.5,"a":-2}}
{"id":2}
{"id":3,"tags":[],"attrs":{}}
`

const mixedDocs = `{"id":1}
{"id":"x"}
{"id":3}
`

func writeInput(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestConvert_Stdin(t *testing.T) {
	stdout, stderr, err := execute(t, rowDocs, "convert", "-t", rowType)
	require.NoError(t, err)
	assert.Empty(t, stderr)

	newGoldie(t).Assert(t, "convert_jsonl", []byte(stdout))
}

func TestConvert_Workers(t *testing.T) {
	stdout, _, err := execute(t, rowDocs, "convert", "-t", rowType, "--workers", "4")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "convert_jsonl", []byte(stdout))
}

func TestConvert_YAMLFile(t *testing.T) {
	path := writeInput(t, "rows.yaml", []byte(`at: 2024-01-02T03:04:05+02:00
blob: !!binary AP8=
n: 7
---
at: 1
n: ~
`))

	stdout, _, err := execute(t, "", "convert", "-t", "struct<at:timestamp,blob:binary,n:smallint>", "--input", path)
	require.NoError(t, err)
	assert.Equal(t,
		`{"at":"2024-01-02T01:04:05Z","blob":"AP8=","n":7}`+"\n"+
			`{"at":"1970-01-01T00:00:01Z","blob":null,"n":null}`+"\n",
		stdout)
}

func TestConvert_Msgpack(t *testing.T) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	require.NoError(t, enc.Encode(map[string]any{"id": 1, "blob": []byte{0x00, 0xff}}))
	require.NoError(t, enc.Encode([]any{2, nil}))
	// Bin payloads that happen to be valid base64 are still raw bytes.
	require.NoError(t, enc.Encode([]any{3, []byte("AAAA")}))
	path := writeInput(t, "rows.bin", buf.Bytes())

	stdout, _, err := execute(t, "", "convert", "-t", "struct<id:int,blob:binary>",
		"--input", path, "--input-format", "msgpack")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"blob":"AP8="}`+"\n"+
		`{"id":2,"blob":null}`+"\n"+
		`{"id":3,"blob":"QUFBQQ=="}`+"\n", stdout)
}

func TestConvert_OnError(t *testing.T) {
	tests := []struct {
		name    string
		policy  string
		workers string
		want    string
	}{
		{"null_stream", OnErrorNull, "1", "{\"id\":1}\nnull\n{\"id\":3}\n"},
		{"null_batch", OnErrorNull, "2", "{\"id\":1}\nnull\n{\"id\":3}\n"},
		{"skip_stream", OnErrorSkip, "1", "{\"id\":1}\n{\"id\":3}\n"},
		{"skip_batch", OnErrorSkip, "2", "{\"id\":1}\n{\"id\":3}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := execute(t, mixedDocs, "convert", "-t", "struct<id:int>",
				"--on-error", tt.policy, "--workers", tt.workers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
			assert.Contains(t, stderr, "level=WARN")
			assert.Contains(t, stderr, "document=1")
		})
	}
}

func TestConvert_FailOnBindError(t *testing.T) {
	stdout, stderr, err := execute(t, mixedDocs, "--format", "json", "convert", "-t", "struct<id:int>")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitStatus(err))
	// Documents before the failure are still written.
	assert.Equal(t, "{\"id\":1}\n", stdout)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stderr), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeBind, resp.Error.Code)
	assert.Equal(t, "document 1: $.id: expected integer, got string", resp.Error.Message)
}

func TestConvert_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(rowDocs))
	cmd.SetArgs([]string{"convert", "-t", "struct<id:int>"})

	err := cmd.ExecuteContext(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ExitFailure, ExitStatus(err))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "document 0: context canceled")
}

func TestConvert_DecodeError(t *testing.T) {
	_, stderr, err := execute(t, "{\"id\":1}\n{\"id\":", "convert", "-t", "struct<id:int>")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitStatus(err))
	assert.Contains(t, stderr, "Error [E201]: document 1:")
}

func TestConvert_OutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rows.jsonl")

	stdout, _, err := execute(t, rowDocs, "convert", "-t", rowType, "-o", out)
	require.NoError(t, err)
	assert.Equal(t, "✓ Converted 3 document(s) to "+out+"\n", stdout)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "convert_jsonl", written)
}

func TestConvert_OutputFileJSONSummary(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rows.jsonl")

	stdout, _, err := execute(t, mixedDocs, "--format", "json", "convert", "-t", "struct<id:int>",
		"-o", out, "--on-error", "skip")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   ConvertSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ConvertSummary{Converted: 2, Skipped: 1, Output: out}, resp.Data)
}

func TestConvert_CommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"bad_policy", []string{"convert", "-t", "int", "--on-error", "retry"}, ErrCodeGeneric},
		{"bad_input_format", []string{"convert", "-t", "int", "--input-format", "xml"}, ErrCodeGeneric},
		{"missing_input", []string{"convert", "-t", "int", "--input", "/nonexistent/rows.json"}, ErrCodeNotFound},
		{"unsupported_shape", []string{"convert", "-t", "array<date>"}, ErrCodeUnsupportedShape},
		{"no_schema", []string{"convert"}, ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, ExitStatus(err))
			assert.Contains(t, stderr, "Error ["+tt.wantCode+"]")
		})
	}
}
