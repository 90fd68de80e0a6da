package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, TierPC, cfg.Tier)
	assert.Equal(t, StyleBoxes, cfg.RenderStyle)
	assert.Equal(t, 2, cfg.MealMultiplier())
	assert.Equal(t, "PENSION COMPLETA", cfg.ServiceMatch())
	assert.Equal(t, 1, cfg.Tiers[TierMAP].MealMultiplier)
	assert.Equal(t, "MEDIA PENSION", cfg.Tiers[TierMAP].ServiceMatch)
	assert.Equal(t, "assets/MapDay.png", cfg.Tiers[TierMAP].CheckImage)
	assert.Equal(t, "assets/JubPc2.png", cfg.Tiers[TierPC].CheckImage)
	assert.Equal(t, ",", cfg.CSV.Delimiter)
	assert.Equal(t, 1, cfg.CSV.HeaderRows)
	require.NoError(t, cfg.Validate())
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		input   string
		want    Tier
		wantErr bool
	}{
		{input: "MAP", want: TierMAP},
		{input: " map ", want: TierMAP},
		{input: "pc", want: TierPC},
		{input: "full", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTier(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRenderStyle(t *testing.T) {
	for input, want := range map[string]RenderStyle{
		"boxes":           StyleBoxes,
		"printable-boxes": StyleBoxes,
		"IMAGE":           StyleImage,
		"static-image":    StyleImage,
	} {
		got, err := ParseRenderStyle(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseRenderStyle("pdf")
	assert.Error(t, err)
}

func TestParse_PartialOverrideKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
tier: map
render_style: static-image
tiers:
  PC:
    check_image: custom/pc.png
csv:
  delimiter: ";"
`))
	require.NoError(t, err)

	assert.Equal(t, TierMAP, cfg.Tier)
	assert.Equal(t, StyleImage, cfg.RenderStyle)
	assert.Equal(t, "custom/pc.png", cfg.Tiers[TierPC].CheckImage)
	assert.Equal(t, 2, cfg.Tiers[TierPC].MealMultiplier, "unset fields fall back to defaults")
	assert.Equal(t, "PENSION COMPLETA", cfg.Tiers[TierPC].ServiceMatch)
	assert.Equal(t, ";", cfg.CSV.Delimiter)
	assert.Equal(t, 1, cfg.MealMultiplier())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown tier", yaml: "tier: breakfast"},
		{name: "unknown style", yaml: "render_style: pdf"},
		{name: "negative multiplier", yaml: "tiers:\n  MAP:\n    meal_multiplier: -1"},
		{name: "malformed yaml", yaml: "tier: [MAP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vouchers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tier: PC\noutput:\n  roster: true\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TierPC, cfg.Tier)
	assert.True(t, cfg.Output.Roster)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestWithTier_DoesNotMutateOriginal(t *testing.T) {
	cfg := Default()
	mapCfg := cfg.WithTier(TierMAP)

	assert.Equal(t, TierPC, cfg.Tier)
	assert.Equal(t, TierMAP, mapCfg.Tier)
	assert.Equal(t, 1, mapCfg.MealMultiplier())

	settings := mapCfg.Tiers[TierMAP]
	settings.MealMultiplier = 7
	mapCfg.Tiers[TierMAP] = settings
	assert.Equal(t, 1, cfg.Tiers[TierMAP].MealMultiplier)
}
