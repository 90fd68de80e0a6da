// =============================================================================
// Meal Voucher Generator - Configuration Module
// =============================================================================
//
// This module holds the configuration value that every pipeline stage reads:
// the active service tier, the check-off rendering style and the per-tier
// settings (meal multiplier, contracted-service match text, check image).
//
// CONFIGURATION SOURCES:
//   1. Built-in defaults (tier=PC, style=boxes)
//   2. Optional YAML file (vouchers.yaml)
//   3. CLI flags / environment overrides (applied by the cmd package)
//
// The configuration is an explicit value passed to each stage. Nothing in the
// pipeline reads it from package state, and nothing is ever written back.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// TIERS AND RENDER STYLES
// =============================================================================

// Tier is a service level. Each tier has its own meal multiplier and
// eligibility text.
type Tier string

const (
	// TierMAP is half-board: dinner only, one meal per person per day.
	TierMAP Tier = "MAP"

	// TierPC is full-board: lunch and dinner, two meals per person per day.
	TierPC Tier = "PC"
)

// RenderStyle selects how the check-off section of a voucher is drawn.
type RenderStyle string

const (
	// StyleBoxes renders printable day-by-day grids of empty boxes.
	StyleBoxes RenderStyle = "boxes"

	// StyleImage renders a single static tier-specific image.
	StyleImage RenderStyle = "image"
)

// ParseTier converts user input ("map", "PC", " pc ") into a Tier.
func ParseTier(value string) (Tier, error) {
	switch Tier(strings.ToUpper(strings.TrimSpace(value))) {
	case TierMAP:
		return TierMAP, nil
	case TierPC:
		return TierPC, nil
	default:
		return "", fmt.Errorf("unknown tier %q (expected MAP or PC)", value)
	}
}

// ParseRenderStyle converts user input into a RenderStyle. The long names
// used in documentation ("printable-boxes", "static-image") are accepted too.
func ParseRenderStyle(value string) (RenderStyle, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "boxes", "printable-boxes":
		return StyleBoxes, nil
	case "image", "static-image":
		return StyleImage, nil
	default:
		return "", fmt.Errorf("unknown render style %q (expected boxes or image)", value)
	}
}

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// TierSettings holds the values that change with the active tier.
type TierSettings struct {
	// MealMultiplier is the number of meals owed per person per day.
	// Default: 1 (MAP), 2 (PC)
	MealMultiplier int `yaml:"meal_multiplier"`

	// ServiceMatch is the text searched for in the contracted-services
	// column, after case and accent folding on both sides.
	// Default: "MEDIA PENSION" (MAP), "PENSION COMPLETA" (PC)
	ServiceMatch string `yaml:"service_match"`

	// CheckImage is the image used by the static-image render style.
	CheckImage string `yaml:"check_image"`

	// Title is the voucher heading.
	Title string `yaml:"title"`

	// Instruction is the sentence addressed to the dining room staff.
	Instruction string `yaml:"instruction"`
}

// CSVSettings contains settings for reading the reservation export.
type CSVSettings struct {
	// Delimiter is the field separator. Quoting is not supported.
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of leading lines skipped before data.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`
}

// OutputSettings controls where the CLI writes rendered documents.
type OutputSettings struct {
	// Dir is the directory for rendered documents.
	// Default: "./output"
	Dir string `yaml:"dir"`

	// FileNameFormat is the output file name pattern.
	// Placeholders: {tier}, {timestamp}, {uuid}, {original}
	// Default: "{tier}_{timestamp}_{uuid}.html"
	FileNameFormat string `yaml:"file_name_format"`

	// Roster also writes an XLSX roster next to the HTML document.
	Roster bool `yaml:"roster"`

	// Diagnostics writes a diagnostics log when rows looked suspicious.
	Diagnostics bool `yaml:"diagnostics"`

	// ArchiveDir receives a copy of every export rendered successfully.
	// Empty disables archiving.
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveByDate files archived copies under year/month/day
	// subdirectories of ArchiveDir.
	ArchiveByDate bool `yaml:"archive_by_date"`
}

// LogSettings configures the structured logger.
type LogSettings struct {
	// Level is one of debug, info, warn, error. Default: "info"
	Level string `yaml:"level"`

	// OutputPath is stdout, stderr or a file path. Default: "stderr"
	OutputPath string `yaml:"output_path"`

	// Format is console or json. Default: "console"
	Format string `yaml:"format"`
}

// Config is the full configuration value read by the pipeline.
type Config struct {
	// Tier is the active service tier.
	Tier Tier `yaml:"tier"`

	// RenderStyle selects the check-off section rendering.
	RenderStyle RenderStyle `yaml:"render_style"`

	// LogoPath is the letterhead image shown on every voucher.
	LogoPath string `yaml:"logo_path"`

	// Tiers holds the per-tier settings.
	Tiers map[Tier]TierSettings `yaml:"tiers"`

	CSV    CSVSettings    `yaml:"csv"`
	Output OutputSettings `yaml:"output"`
	Log    LogSettings    `yaml:"log"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// defaultTiers returns the built-in per-tier settings.
func defaultTiers() map[Tier]TierSettings {
	return map[Tier]TierSettings{
		TierMAP: {
			MealMultiplier: 1,
			ServiceMatch:   "MEDIA PENSION",
			CheckImage:     "assets/MapDay.png",
			Title:          "Voucher de Comidas",
			Instruction:    "Favor de brindar servicio de Cena al siguiente afiliado:",
		},
		TierPC: {
			MealMultiplier: 2,
			ServiceMatch:   "PENSION COMPLETA",
			CheckImage:     "assets/JubPc2.png",
			Title:          "Voucher de Comidas PPJ",
			Instruction:    "Favor de brindar servicio de Pensión Completa al siguiente afiliado:",
		},
	}
}

// Default returns the configuration used on every fresh load.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.Tier == "" {
		cfg.Tier = TierPC
	}
	if cfg.RenderStyle == "" {
		cfg.RenderStyle = StyleBoxes
	}
	if cfg.LogoPath == "" {
		cfg.LogoPath = "assets/suteba_logo_3.jpg"
	}

	// Per-tier settings are merged field by field so a file can override
	// just one value, e.g. the PC check image.
	defaults := defaultTiers()
	if cfg.Tiers == nil {
		cfg.Tiers = make(map[Tier]TierSettings, len(defaults))
	}
	for tier, def := range defaults {
		current := cfg.Tiers[tier]
		if current.MealMultiplier == 0 {
			current.MealMultiplier = def.MealMultiplier
		}
		if current.ServiceMatch == "" {
			current.ServiceMatch = def.ServiceMatch
		}
		if current.CheckImage == "" {
			current.CheckImage = def.CheckImage
		}
		if current.Title == "" {
			current.Title = def.Title
		}
		if current.Instruction == "" {
			current.Instruction = def.Instruction
		}
		cfg.Tiers[tier] = current
	}

	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ","
	}
	if cfg.CSV.HeaderRows == 0 {
		cfg.CSV.HeaderRows = 1
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "./output"
	}
	if cfg.Output.FileNameFormat == "" {
		cfg.Output.FileNameFormat = "{tier}_{timestamp}_{uuid}.html"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.OutputPath == "" {
		cfg.Log.OutputPath = "stderr"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// =============================================================================
// LOADING AND VALIDATION
// =============================================================================

// Load reads a YAML configuration file, applies defaults and validates it.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read, parsed or is invalid. A missing
//     file is reported with an error wrapping fs.ErrNotExist.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML document into a Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Normalise the case of enum-like values before validation.
	if cfg.Tier != "" {
		tier, err := ParseTier(string(cfg.Tier))
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		cfg.Tier = tier
	}
	if cfg.RenderStyle != "" {
		style, err := ParseRenderStyle(string(cfg.RenderStyle))
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		cfg.RenderStyle = style
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration can drive a render pass.
func (c *Config) Validate() error {
	if _, err := ParseTier(string(c.Tier)); err != nil {
		return err
	}
	if _, err := ParseRenderStyle(string(c.RenderStyle)); err != nil {
		return err
	}
	for _, tier := range []Tier{TierMAP, TierPC} {
		settings, ok := c.Tiers[tier]
		if !ok {
			return fmt.Errorf("missing settings for tier %s", tier)
		}
		if settings.MealMultiplier <= 0 {
			return fmt.Errorf("tier %s: meal_multiplier must be positive, got %d", tier, settings.MealMultiplier)
		}
		if strings.TrimSpace(settings.ServiceMatch) == "" {
			return fmt.Errorf("tier %s: service_match must not be empty", tier)
		}
	}
	if c.CSV.HeaderRows < 0 {
		return fmt.Errorf("csv.header_rows must not be negative")
	}
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Active returns the settings of the active tier.
func (c *Config) Active() TierSettings {
	return c.Tiers[c.Tier]
}

// MealMultiplier returns the meals per person per day for the active tier.
func (c *Config) MealMultiplier() int {
	return c.Active().MealMultiplier
}

// ServiceMatch returns the contracted-service text for the active tier.
func (c *Config) ServiceMatch() string {
	return c.Active().ServiceMatch
}

// Clone returns a deep copy, so callers can change the tier of their copy
// without affecting anyone else holding the original.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Tiers = make(map[Tier]TierSettings, len(c.Tiers))
	for tier, settings := range c.Tiers {
		clone.Tiers[tier] = settings
	}
	return &clone
}

// WithTier returns a copy of the configuration with another active tier.
func (c *Config) WithTier(tier Tier) *Config {
	clone := c.Clone()
	clone.Tier = tier
	return clone
}
