package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendsense/internal/classify"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "database:\n  driver: sqlite\n  path: " + filepath.Join(dir, "cli.db") + "\ncache:\n  backend: none\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestPredictLoop(t *testing.T) {
	cat := classify.NewCategorizer(classify.NewRuleClassifier())
	in := strings.NewReader("Rs 300 paid at Zomato\n\nquit\nnever read\n")
	var out bytes.Buffer

	require.NoError(t, predictLoop(context.Background(), in, &out, cat))

	got := out.String()
	assert.Contains(t, got, "• Food & Dining: 100.00%")
	assert.Contains(t, got, "👋 Exiting.")
	assert.Equal(t, 1, strings.Count(got, "🔍 Prediction Results:"))
}

func TestPredictLoop_EOF(t *testing.T) {
	cat := classify.NewCategorizer(classify.NewRuleClassifier())
	var out bytes.Buffer
	assert.NoError(t, predictLoop(context.Background(), strings.NewReader(""), &out, cat))
}

func TestDatasetClean(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.csv")
	outPath := filepath.Join(dir, "clean.csv")
	require.NoError(t, os.WriteFile(in, []byte("SMS,Category\nCheque cleared for Rs 500 today,other\n"), 0o644))

	out, err := execute(t, "", "dataset", "clean", "--in", in, "--out", outPath, "--reclassify")
	require.NoError(t, err)
	assert.Contains(t, out, "Rows after cleaning: 1")
	assert.Contains(t, out, "Reclassified: 1")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "SMS,Category\ncheque cleared for rs 500 today,Cheque Clearance\n", string(data))
}

func TestDatasetClean_RequiresFlags(t *testing.T) {
	_, err := execute(t, "", "dataset", "clean")
	assert.Error(t, err)
}

func TestMigrateAndExport(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "", "--config", cfgPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is at version 1 (sqlite)")

	exportDir := t.TempDir()
	out, err = execute(t, "", "--config", cfgPath, "export", "--uid", "u1", "--dir", exportDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 0 records, 0 bills, 0 budgets, 0 flows")

	files, err := filepath.Glob(filepath.Join(exportDir, "export_u1_*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFlowsCommand_SavesForUID(t *testing.T) {
	cfgPath := writeConfig(t)
	stdin := "I spend 50 on tea in the morning\n\n"

	out, err := execute(t, stdin, "--config", cfgPath, "flows", "--uid", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved 1 flow(s) for u1")
}

func TestInvalidFlagOverride(t *testing.T) {
	cfgPath := writeConfig(t)
	_, err := execute(t, "", "--config", cfgPath, "--db-driver", "mysql", "migrate")
	assert.ErrorContains(t, err, "unsupported database driver")
}
