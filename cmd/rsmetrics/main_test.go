package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TFMV/rsmetrics/analysis"
	"github.com/TFMV/rsmetrics/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterSource = `
struct Counter {
    count: u32,
    step: u32,
}

impl Counter {
    fn tick(&mut self) {
        self.count += self.step;
    }

    fn reset(&mut self) {
        self.count = 0;
    }
}

impl Counter {
    fn reset(&mut self) {
        while self.count > 0 {
            self.count -= 1;
        }
    }
}
`

func project(t *testing.T) string {
	t.Helper()
	// Keep config discovery away from the package directory.
	t.Chdir(t.TempDir())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "counter.rs"), []byte(counterSource), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.rs"), []byte("struct {"), 0644))
	return dir
}

func TestRun_Table(t *testing.T) {
	dir := project(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{dir}, &stdout, &stderr))

	assert.Contains(t, stdout.String(), "Counter")
	assert.Contains(t, stdout.String(), "LCOM")
	assert.Contains(t, stderr.String(), "parse_failure")
	assert.NotContains(t, stderr.String(), "ambiguous_merge")
	assert.NotContains(t, stderr.String(), "files_analyzed")
}

func TestRun_DebugWarnings(t *testing.T) {
	dir := project(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--debug", "--format=csv", dir}, &stdout, &stderr))

	assert.Contains(t, stderr.String(), "ambiguous_merge")
	assert.Contains(t, stderr.String(), `"files_analyzed": 1`)
	assert.Contains(t, stderr.String(), `"files_skipped": 1`)
	assert.Contains(t, stderr.String(), `"total_methods": 2`)
	// WMC is tick (1) plus the second reset (2).
	assert.Equal(t, "type_name,file,lcom,cbo,wmc", strings.Split(stdout.String(), "\n")[0])
	assert.Contains(t, stdout.String(), ",0,3\n")
}

func TestRun_Type(t *testing.T) {
	dir := project(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--type", "Counter", dir}, &stdout, &stderr))

	var rec types.TypeRecord
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rec))
	assert.Equal(t, "Counter", rec.Name)
	assert.Equal(t, []string{"count", "step"}, rec.FieldNames())
	require.Len(t, rec.Methods, 2)

	err := run(context.Background(), []string{"--type", "Timer", dir}, &stdout, &stderr)
	assert.ErrorContains(t, err, "not found")
}

func TestRun_OutputAndExclude(t *testing.T) {
	dir := project(t)
	out := filepath.Join(t.TempDir(), "metrics.json")

	var stdout, stderr bytes.Buffer
	args := []string{"--exclude", "broken.rs", "-f", "json", "-m", "wmc", "-o", out, dir}
	require.NoError(t, run(context.Background(), args, &stdout, &stderr))

	assert.Contains(t, stdout.String(), "Results written to")
	assert.Empty(t, stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 3.0, rows[0]["wmc"])
	assert.NotContains(t, rows[0], "lcom")
}

func TestRun_Errors(t *testing.T) {
	dir := project(t)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"--format", "xml", dir}, &stdout, &stderr)
	assert.Error(t, err)

	err = run(context.Background(), []string{"--workers", "lots", dir}, &stdout, &stderr)
	assert.Error(t, err)

	empty := t.TempDir()
	err = run(context.Background(), []string{empty}, &stdout, &stderr)
	assert.ErrorIs(t, err, analysis.ErrNoAnalyzableFiles)
}
