package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCompileDefinition(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hello.txt"), "hello world")
	writeFile(t, filepath.Join(dir, "data.conf"), `
group=test-data

[file]
filename=hello.txt
alias=greeting.txt
`)
	output := filepath.Join(dir, "data.go")

	code := run([]string{"test-data", filepath.Join(dir, "data.conf"), output, "--package", "testdata"})
	require.Equal(t, 0, code)

	generated, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(generated), "package testdata")
	assert.Contains(t, string(generated), "resource.Register")
	assert.Contains(t, string(generated), `Name: "test-data"`)
}

func TestCompileSingle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "logo.bin"), "\x00\x01\x02")
	output := filepath.Join(dir, "logo.go")

	code := run([]string{"logo", filepath.Join(dir, "logo.bin"), output, "--single"})
	require.Equal(t, 0, code)

	generated, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(generated), "var LogoData = []byte{")
	assert.Contains(t, string(generated), "var LogoSize = len(LogoData)")
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data.conf"), "group=test-data\n")
	writeFile(t, filepath.Join(dir, "broken.conf"), "no group key\n")

	cases := []struct {
		name string
		args []string
		code int
	}{
		{
			name: "wrong argument count",
			args: []string{"only-one"},
			code: exitUsage,
		},
		{
			name: "output not a go file",
			args: []string{"test-data", filepath.Join(dir, "data.conf"), filepath.Join(dir, "out.txt")},
			code: exitUsage,
		},
		{
			name: "output directory missing",
			args: []string{"test-data", filepath.Join(dir, "data.conf"), filepath.Join(dir, "nope", "out.go")},
			code: exitUsage,
		},
		{
			name: "input missing",
			args: []string{"test-data", filepath.Join(dir, "absent.conf"), filepath.Join(dir, "out.go")},
			code: exitInput,
		},
		{
			name: "input parse failure",
			args: []string{"test-data", filepath.Join(dir, "broken.conf"), filepath.Join(dir, "out.go")},
			code: exitInput,
		},
		{
			name: "group name mismatch",
			args: []string{"other-name", filepath.Join(dir, "data.conf"), filepath.Join(dir, "out.go")},
			code: exitInput,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.code, run(c.args))
		})
	}
}
