package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/meal-vouchers/internal/config"
)

// exportLine builds a split-name layout line.
func exportLine(room, roomType, booking, dni, name, services string) string {
	fields := make([]string, 19)
	fields[1] = "Hotel Sierra"
	fields[2] = room
	fields[3] = roomType
	fields[5] = "2"
	fields[6] = booking
	fields[8] = "05/03/2024"
	fields[9] = "07/03/2024"
	fields[12] = dni
	fields[13] = name
	fields[16] = services
	return strings.Join(fields, ",")
}

func writeExport(t *testing.T, dir string) string {
	t.Helper()

	text := "header\n" +
		exportLine("12", "DBL MAT A COMPARTIR", "V9", "30111222", "juan", "PENSION COMPLETA") + "\n" +
		exportLine("12", "DBL MAT A COMPARTIR", "V9", "28000111", "maria", "PENSION COMPLETA") + "\n" +
		exportLine("14", "SINGLE", "V10", "1000", "ana", "MEDIA PENSION") + "\n"

	path := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

// execute runs the root command with args after resetting flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile = ""
	verbose = false
	renderFiles = nil
	renderDir = ""
	outDir = ""
	writeRoster = false
	toStdout = false
	dryRun = false
	inspectFile = ""
	require.NoError(t, rootCmd.PersistentFlags().Set("tier", ""))
	require.NoError(t, rootCmd.PersistentFlags().Set("style", ""))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Meal Voucher Generator")
	assert.Contains(t, out, "Version:    "+Version)
}

func TestRenderCommand_WritesDocumentAndRoster(t *testing.T) {
	dir := t.TempDir()
	input := writeExport(t, dir)
	output := filepath.Join(dir, "out")

	out, err := execute(t, "render", "--file", input, "--out", output, "--xlsx")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ export.csv")
	assert.Contains(t, out, "(1 vouchers, 0 warnings)")

	html, err := filepath.Glob(filepath.Join(output, "PC_*.html"))
	require.NoError(t, err)
	require.Len(t, html, 1)

	xlsx, err := filepath.Glob(filepath.Join(output, "PC_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, xlsx, 1)

	summaries, err := filepath.Glob(filepath.Join(output, "processing_summary_*.txt"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	doc, err := os.ReadFile(html[0])
	require.NoError(t, err)
	assert.Contains(t, string(doc), "MARIA")
	assert.Equal(t, 4, strings.Count(string(doc), `class="day-box"`))
}

func TestRenderCommand_ArchivesByDate(t *testing.T) {
	dir := t.TempDir()
	input := writeExport(t, dir)
	archive := filepath.Join(dir, "archive")

	cfgPath := filepath.Join(dir, "vouchers.yaml")
	cfgText := "output:\n" +
		"  dir: " + filepath.Join(dir, "out") + "\n" +
		"  archive_dir: " + archive + "\n" +
		"  archive_by_date: true\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgText), 0644))

	_, err := execute(t, "render", "--config", cfgPath, "--file", input)
	require.NoError(t, err)

	now := time.Now()
	assert.FileExists(t, filepath.Join(archive, now.Format("2006"), now.Format("01"), now.Format("02"), "export.csv"))
	assert.FileExists(t, input)
}

func TestRenderCommand_OutcomesFollowInputOrder(t *testing.T) {
	dir := t.TempDir()
	first := writeExport(t, dir)
	second := filepath.Join(dir, "a.csv")
	data, err := os.ReadFile(first)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(second, data, 0644))

	out, err := execute(t, "render", "--file", first, "--file", second, "--dry-run")
	require.NoError(t, err)

	exportAt := strings.Index(out, "✓ export.csv")
	aAt := strings.Index(out, "✓ a.csv")
	require.NotEqual(t, -1, exportAt)
	require.NotEqual(t, -1, aAt)
	assert.Less(t, exportAt, aAt)
}

func TestRenderCommand_StdoutWithTierFlag(t *testing.T) {
	dir := t.TempDir()
	input := writeExport(t, dir)

	out, err := execute(t, "render", "--file", input, "--stdout", "--tier", "map")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "ANA")
	assert.NotContains(t, out, "MARIA")
}

func TestRenderCommand_DryRun(t *testing.T) {
	dir := t.TempDir()
	input := writeExport(t, dir)
	output := filepath.Join(dir, "out")

	out, err := execute(t, "render", "--file", input, "--out", output, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "(dry run)")
	assert.NoDirExists(t, output)
}

func TestRenderCommand_MissingInput(t *testing.T) {
	_, err := execute(t, "render")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no export given")

	dir := t.TempDir()
	_, err = execute(t, "render", "--file", filepath.Join(dir, "missing.csv"), "--out", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 export(s) failed")
}

func TestInspectCommand(t *testing.T) {
	input := writeExport(t, t.TempDir())

	out, err := execute(t, "inspect", "--file", input)
	require.NoError(t, err)
	assert.Contains(t, out, "PC (pensión completa)")
	assert.Contains(t, out, "Eligible: 2")
	assert.Contains(t, out, "Vouchers: 1")
	assert.Contains(t, out, "MARIA")
}

func TestInvalidTierFlag(t *testing.T) {
	input := writeExport(t, t.TempDir())

	_, err := execute(t, "inspect", "--file", input, "--tier", "ALL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tier")
}

func TestLoadConfig(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit config file must exist")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tier: map\n"), 0644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.TierMAP, cfg.Tier)
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()

	require.NoError(t, applyOverrides(cfg, "", ""))
	assert.Equal(t, config.TierPC, cfg.Tier)

	require.NoError(t, applyOverrides(cfg, "MAP", "static-image"))
	assert.Equal(t, config.TierMAP, cfg.Tier)
	assert.Equal(t, config.StyleImage, cfg.RenderStyle)

	assert.Error(t, applyOverrides(cfg, "", "pdf"))
}
