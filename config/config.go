package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/paulmach/orb"
	"github.com/treeshoptech/freedom-drains-pro/design"
	"github.com/treeshoptech/freedom-drains-pro/pricing"
	"github.com/treeshoptech/freedom-drains-pro/render"
)

// TokenEnv is consulted when no geocoder token is configured.
const TokenEnv = "MAPBOX_TOKEN"

type Config struct {
	Theme    ThemeConfig    `toml:"theme"`
	Pricing  PricingConfig  `toml:"pricing"`
	Palette  PaletteConfig  `toml:"palette"`
	Autosave AutosaveConfig `toml:"autosave"`
	Storage  StorageConfig  `toml:"storage"`
	Geocoder GeocoderConfig `toml:"geocoder"`
	Map      MapConfig      `toml:"map"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

type ThemeConfig struct {
	BG          string `toml:"bg"`
	FG          string `toml:"fg"`
	Accent      string `toml:"accent"`
	Accent2     string `toml:"accent2"`
	Muted       string `toml:"muted"`
	Dim         string `toml:"dim"`
	StatusBarBG string `toml:"status_bar_bg"`
	StatusBarFG string `toml:"status_bar_fg"`
	Error       string `toml:"error"`
	CursorBG    string `toml:"cursor_bg"`
	Crosshair   string `toml:"crosshair"`

	// Feedback
	FeedbackSuccessFG string `toml:"feedback_success_fg"`
	FeedbackSuccessBG string `toml:"feedback_success_bg"`
	FeedbackWarningFG string `toml:"feedback_warning_fg"`
	FeedbackWarningBG string `toml:"feedback_warning_bg"`
	FeedbackErrorFG   string `toml:"feedback_error_fg"`
	FeedbackErrorBG   string `toml:"feedback_error_bg"`

	// Spinner
	SpinnerFG   string `toml:"spinner_fg"`
	SpinnerType string `toml:"spinner_type"`

	// Promo badge
	PromoFG string `toml:"promo_fg"`
	PromoBG string `toml:"promo_bg"`
}

// RatesConfig overrides individual entries of a rate table. Unset entries
// keep their default.
type RatesConfig struct {
	HydrobloxPerLF *float64 `toml:"hydroblox_per_lf,omitempty"`
	ParallelPerLF  *float64 `toml:"parallel_per_lf,omitempty"`
	TransitionBox  *float64 `toml:"transition_box,omitempty"`
	StormwaterBox  *float64 `toml:"stormwater_box,omitempty"`
}

type PromoConfig struct {
	RatesConfig
	Starts   string `toml:"starts,omitempty"`
	Ends     string `toml:"ends,omitempty"`
	Disabled bool   `toml:"disabled,omitempty"`
}

type PricingConfig struct {
	RatesConfig
	Promo PromoConfig        `toml:"promo"`
	Units map[string]float64 `toml:"units,omitempty"`
}

type PaletteConfig struct {
	Colors map[string]string `toml:"colors,omitempty"`
	Alert  string            `toml:"alert,omitempty"`
}

type AutosaveConfig struct {
	Debounce string `toml:"debounce,omitempty"`
}

type StorageConfig struct {
	Path string `toml:"path,omitempty"`
}

type GeocoderConfig struct {
	Token   string `toml:"token,omitempty"`
	Country string `toml:"country,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
}

type MapConfig struct {
	Lat *float64 `toml:"lat,omitempty"`
	Lng *float64 `toml:"lng,omitempty"`
	// FeetPerCell is the ground distance one terminal column covers.
	FeetPerCell float64 `toml:"feet_per_cell,omitempty"`
}

type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

type LogConfig struct {
	Level string `toml:"level,omitempty"`
	Path  string `toml:"path,omitempty"`
}

const (
	DefaultLat         = 29.0258
	DefaultLng         = -80.927
	DefaultFeetPerCell = 4.0
	DefaultListen      = ":8080"
	DefaultDebounce    = 2 * time.Second
	DefaultCountry     = "US"
	DefaultLogLevel    = "info"
)

// DefaultTheme returns the Vesper-inspired default theme.
func DefaultTheme() ThemeConfig {
	return ThemeConfig{
		BG:          "#101010",
		FG:          "#ffffff",
		Accent:      "#ffc799",
		Accent2:     "#99ffe4",
		Muted:       "#505050",
		Dim:         "#a0a0a0",
		StatusBarBG: "#1a1a1a",
		StatusBarFG: "#a0a0a0",
		Error:       "#ff8080",
		CursorBG:    "#2a2a2a",
		Crosshair:   "#ffc799",

		FeedbackSuccessFG: "#99ffe4",
		FeedbackSuccessBG: "#0a2a20",
		FeedbackWarningFG: "#ffc799",
		FeedbackWarningBG: "#2a1a0a",
		FeedbackErrorFG:   "#ff8080",
		FeedbackErrorBG:   "#2a0a0a",

		SpinnerFG:   "#ffc799",
		SpinnerType: "minidot",

		PromoFG: "#101010",
		PromoBG: "#99ffe4",
	}
}

// ResolvedTheme merges user overrides onto the default theme.
func (c Config) ResolvedTheme() ThemeConfig {
	d := DefaultTheme()
	t := c.Theme
	return ThemeConfig{
		BG:                pick(t.BG, d.BG),
		FG:                pick(t.FG, d.FG),
		Accent:            pick(t.Accent, d.Accent),
		Accent2:           pick(t.Accent2, d.Accent2),
		Muted:             pick(t.Muted, d.Muted),
		Dim:               pick(t.Dim, d.Dim),
		StatusBarBG:       pick(t.StatusBarBG, d.StatusBarBG),
		StatusBarFG:       pick(t.StatusBarFG, d.StatusBarFG),
		Error:             pick(t.Error, d.Error),
		CursorBG:          pick(t.CursorBG, d.CursorBG),
		Crosshair:         pick(t.Crosshair, d.Crosshair),
		FeedbackSuccessFG: pick(t.FeedbackSuccessFG, d.FeedbackSuccessFG),
		FeedbackSuccessBG: pick(t.FeedbackSuccessBG, d.FeedbackSuccessBG),
		FeedbackWarningFG: pick(t.FeedbackWarningFG, d.FeedbackWarningFG),
		FeedbackWarningBG: pick(t.FeedbackWarningBG, d.FeedbackWarningBG),
		FeedbackErrorFG:   pick(t.FeedbackErrorFG, d.FeedbackErrorFG),
		FeedbackErrorBG:   pick(t.FeedbackErrorBG, d.FeedbackErrorBG),
		SpinnerFG:         pick(t.SpinnerFG, d.SpinnerFG),
		SpinnerType:       pick(t.SpinnerType, d.SpinnerType),
		PromoFG:           pick(t.PromoFG, d.PromoFG),
		PromoBG:           pick(t.PromoBG, d.PromoBG),
	}
}

func (r RatesConfig) apply(base pricing.Rates) pricing.Rates {
	base.HydrobloxPerLF = pickFloat(r.HydrobloxPerLF, base.HydrobloxPerLF)
	base.ParallelPerLF = pickFloat(r.ParallelPerLF, base.ParallelPerLF)
	base.TransitionBox = pickFloat(r.TransitionBox, base.TransitionBox)
	base.StormwaterBox = pickFloat(r.StormwaterBox, base.StormwaterBox)
	return base
}

// ResolvedPolicy builds the pricing policy, starting from the default
// regular rates and Q1 2026 promotion.
func (c Config) ResolvedPolicy() (pricing.Policy, error) {
	p := pricing.DefaultPolicy()
	p.Regular = c.Pricing.apply(p.Regular)

	pc := c.Pricing.Promo
	if pc.Disabled {
		p.Promo = nil
		return p, nil
	}
	promo := *p.Promo
	promo.Rates = pc.apply(promo.Rates)
	if pc.Starts != "" {
		t, err := time.Parse(time.RFC3339, pc.Starts)
		if err != nil {
			return pricing.Policy{}, fmt.Errorf("pricing.promo.starts: %w", err)
		}
		promo.Starts = t
	}
	if pc.Ends != "" {
		t, err := time.Parse(time.RFC3339, pc.Ends)
		if err != nil {
			return pricing.Policy{}, fmt.Errorf("pricing.promo.ends: %w", err)
		}
		promo.Ends = t
	}
	if !promo.Starts.IsZero() && !promo.Ends.After(promo.Starts) {
		return pricing.Policy{}, fmt.Errorf("pricing.promo: ends %s is not after starts %s",
			promo.Ends.Format(time.RFC3339), promo.Starts.Format(time.RFC3339))
	}
	p.Promo = &promo
	return p, nil
}

// ResolvedUnitPrices merges [pricing.units] onto the default unit prices.
// Keys are element type tags such as "transition-box".
func (c Config) ResolvedUnitPrices() (map[design.ElementType]float64, error) {
	prices := pricing.DefaultUnitPrices()
	for name, v := range c.Pricing.Units {
		t, err := design.ParseElementType(name)
		if err != nil {
			return nil, fmt.Errorf("pricing.units: %w", err)
		}
		if !t.ClickToPlace() {
			return nil, fmt.Errorf("pricing.units: %s is not placed by clicking", t)
		}
		if !t.HasUnitPrice() {
			return nil, fmt.Errorf("pricing.units: %s has no unit price", t)
		}
		prices[t] = v
	}
	return prices, nil
}

// ResolvedPalette applies [palette] overrides to the default map palette.
func (c Config) ResolvedPalette() (render.Palette, error) {
	colors := make(map[design.ElementType]string, len(c.Palette.Colors))
	for name, hex := range c.Palette.Colors {
		t, err := design.ParseElementType(name)
		if err != nil {
			return render.Palette{}, fmt.Errorf("palette.colors: %w", err)
		}
		colors[t] = hex
	}
	return render.DefaultPalette().WithOverrides(colors, c.Palette.Alert), nil
}

func (c Config) ResolvedAutosaveDelay() (time.Duration, error) {
	if c.Autosave.Debounce == "" {
		return DefaultDebounce, nil
	}
	d, err := time.ParseDuration(c.Autosave.Debounce)
	if err != nil {
		return 0, fmt.Errorf("autosave.debounce: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("autosave.debounce: must be positive, got %s", d)
	}
	return d, nil
}

// ResolvedStoragePath returns the SQLite path with a leading ~ expanded.
func (c Config) ResolvedStoragePath() string {
	if c.Storage.Path != "" {
		return expandHome(c.Storage.Path)
	}
	return filepath.Join(dataDir(), "projects.db")
}

// ResolvedGeocoder fills in the token from the environment and the
// default country.
func (c Config) ResolvedGeocoder() GeocoderConfig {
	g := c.Geocoder
	g.Token = pick(g.Token, os.Getenv(TokenEnv))
	g.Country = pick(g.Country, DefaultCountry)
	return g
}

// ResolvedCenter is where the map opens when no project is loaded.
func (c Config) ResolvedCenter() orb.Point {
	return orb.Point{pickFloat(c.Map.Lng, DefaultLng), pickFloat(c.Map.Lat, DefaultLat)}
}

func (c Config) ResolvedFeetPerCell() float64 {
	if c.Map.FeetPerCell > 0 {
		return c.Map.FeetPerCell
	}
	return DefaultFeetPerCell
}

func (c Config) ResolvedListen() string {
	return pick(c.Server.Listen, DefaultListen)
}

func (c Config) ResolvedLog() LogConfig {
	return LogConfig{
		Level: pick(c.Log.Level, DefaultLogLevel),
		Path:  expandHome(pick(c.Log.Path, filepath.Join(dataDir(), "freedom-drains.log"))),
	}
}

// Validate resolves every section that can fail so bad values surface at
// startup instead of mid-session.
func (c Config) Validate() error {
	if _, err := c.ResolvedPolicy(); err != nil {
		return err
	}
	if _, err := c.ResolvedUnitPrices(); err != nil {
		return err
	}
	if _, err := c.ResolvedPalette(); err != nil {
		return err
	}
	if _, err := c.ResolvedAutosaveDelay(); err != nil {
		return err
	}
	return nil
}

func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

func pickFloat(override *float64, fallback float64) float64 {
	if override != nil {
		return *override
	}
	return fallback
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "freedom-drains")
}

// DefaultConfigPath returns ~/.config/freedom-drains/config.toml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "freedom-drains", "config.toml")
}

// Load reads and validates the TOML config at path.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Starter spells out the everyday settings at their defaults, as a first
// config file to edit.
func Starter() Config {
	lat, lng := DefaultLat, DefaultLng
	return Config{
		Theme:    DefaultTheme(),
		Autosave: AutosaveConfig{Debounce: DefaultDebounce.String()},
		Storage:  StorageConfig{Path: Config{}.ResolvedStoragePath()},
		Geocoder: GeocoderConfig{Country: DefaultCountry},
		Map:      MapConfig{Lat: &lat, Lng: &lng, FeetPerCell: DefaultFeetPerCell},
		Server:   ServerConfig{Listen: DefaultListen},
		Log:      LogConfig{Level: DefaultLogLevel},
	}
}

// Init writes the starter config to path. An existing file is never
// overwritten; that case wraps os.ErrExist.
func Init(path string) (Config, error) {
	if _, err := os.Stat(path); err == nil {
		return Config{}, fmt.Errorf("config %s: %w", path, os.ErrExist)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("checking config: %w", err)
	}
	cfg := Starter()
	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the config back to disk as TOML.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
