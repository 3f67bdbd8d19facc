package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AnalysisVariant selects which core producer handles a run
type AnalysisVariant string

// AnalysisVariant constants
const (
	VariantDetailed       AnalysisVariant = "detailed"
	VariantForensic       AnalysisVariant = "forensic"
	VariantUnified        AnalysisVariant = "unified"
	VariantArchaeological AnalysisVariant = "archaeological"
	VariantVisceral       AnalysisVariant = "visceral"
	VariantComplete       AnalysisVariant = "complete"
)

// ErrUnknownVariant is returned when a variant name does not map to a known producer
var ErrUnknownVariant = errors.New("unknown analysis variant")

// variantAliases maps accepted names (including the Portuguese labels used by
// existing clients) onto canonical variants.
var variantAliases = map[string]AnalysisVariant{
	"detailed":       VariantDetailed,
	"detalhada":      VariantDetailed,
	"forensic":       VariantForensic,
	"forense":        VariantForensic,
	"unified":        VariantUnified,
	"unificada":      VariantUnified,
	"archaeological": VariantArchaeological,
	"arqueologica":   VariantArchaeological,
	"visceral":       VariantVisceral,
	"complete":       VariantComplete,
	"completa":       VariantComplete,
}

// ParseVariant resolves a variant name. Unknown names are rejected, never defaulted.
func ParseVariant(name string) (AnalysisVariant, error) {
	v, ok := variantAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return v, nil
}

// IsValid reports whether v is one of the canonical variants
func (v AnalysisVariant) IsValid() bool {
	switch v {
	case VariantDetailed, VariantForensic, VariantUnified,
		VariantArchaeological, VariantVisceral, VariantComplete:
		return true
	default:
		return false
	}
}

// Enrichment names an optional specialized producer run after core analysis
type Enrichment string

// Enrichment constants
const (
	EnrichmentPredictions    Enrichment = "predictions"
	EnrichmentAntiObjections Enrichment = "anti_objections"
	EnrichmentVisualProofs   Enrichment = "visual_proofs"
	EnrichmentMentalDrivers  Enrichment = "mental_drivers"
	EnrichmentPrePitch       Enrichment = "pre_pitch"
)

// AllEnrichments lists every enrichment in declaration order. Insight merging
// and logging follow this order.
var AllEnrichments = []Enrichment{
	EnrichmentPredictions,
	EnrichmentAntiObjections,
	EnrichmentVisualProofs,
	EnrichmentMentalDrivers,
	EnrichmentPrePitch,
}

// DefaultDepthLevel is applied when ConfigOptions.DepthLevel is zero
const DefaultDepthLevel = 5

// ConfigOptions is the mutable input used to build an AnalysisConfig
type ConfigOptions struct {
	Variant               AnalysisVariant `json:"variant" yaml:"variant" validate:"required,oneof=detailed forensic unified archaeological visceral complete"`
	IncludePredictions    bool            `json:"include_predictions" yaml:"include_predictions"`
	IncludeAntiObjections bool            `json:"include_anti_objections" yaml:"include_anti_objections"`
	IncludeVisualProofs   bool            `json:"include_visual_proofs" yaml:"include_visual_proofs"`
	IncludeMentalDrivers  bool            `json:"include_mental_drivers" yaml:"include_mental_drivers"`
	IncludePrePitch       bool            `json:"include_pre_pitch" yaml:"include_pre_pitch"`
	DepthLevel            int             `json:"depth_level" yaml:"depth_level" validate:"min=1,max=10"`
	CustomSections        []string        `json:"custom_sections" yaml:"custom_sections" validate:"dive,required"`
}

// DefaultConfigOptions returns options with every enrichment enabled and the default depth
func DefaultConfigOptions(variant AnalysisVariant) ConfigOptions {
	return ConfigOptions{
		Variant:               variant,
		IncludePredictions:    true,
		IncludeAntiObjections: true,
		IncludeVisualProofs:   true,
		IncludeMentalDrivers:  true,
		IncludePrePitch:       true,
		DepthLevel:            DefaultDepthLevel,
	}
}

var configValidator = validator.New()

// AnalysisConfig is the immutable configuration of a single run.
// Build it with NewAnalysisConfig; the zero value is not usable.
type AnalysisConfig struct {
	variant        AnalysisVariant
	enabled        map[Enrichment]bool
	depthLevel     int
	customSections []string
}

// NewAnalysisConfig validates opts and freezes them into an AnalysisConfig
func NewAnalysisConfig(opts ConfigOptions) (AnalysisConfig, error) {
	if opts.DepthLevel == 0 {
		opts.DepthLevel = DefaultDepthLevel
	}
	if opts.Variant != "" && !opts.Variant.IsValid() {
		parsed, err := ParseVariant(string(opts.Variant))
		if err != nil {
			return AnalysisConfig{}, err
		}
		opts.Variant = parsed
	}

	if err := configValidator.Struct(opts); err != nil {
		return AnalysisConfig{}, fmt.Errorf("invalid analysis config: %w", err)
	}

	return AnalysisConfig{
		variant: opts.Variant,
		enabled: map[Enrichment]bool{
			EnrichmentPredictions:    opts.IncludePredictions,
			EnrichmentAntiObjections: opts.IncludeAntiObjections,
			EnrichmentVisualProofs:   opts.IncludeVisualProofs,
			EnrichmentMentalDrivers:  opts.IncludeMentalDrivers,
			EnrichmentPrePitch:       opts.IncludePrePitch,
		},
		depthLevel:     opts.DepthLevel,
		customSections: append([]string(nil), opts.CustomSections...),
	}, nil
}

// Variant returns the selected analysis variant
func (c AnalysisConfig) Variant() AnalysisVariant { return c.variant }

// DepthLevel returns the requested analysis depth (1-10)
func (c AnalysisConfig) DepthLevel() int { return c.depthLevel }

// Enabled reports whether the enrichment toggle is on
func (c AnalysisConfig) Enabled(e Enrichment) bool { return c.enabled[e] }

// EnabledEnrichments returns the enabled enrichments in declaration order
func (c AnalysisConfig) EnabledEnrichments() []Enrichment {
	var out []Enrichment
	for _, e := range AllEnrichments {
		if c.enabled[e] {
			out = append(out, e)
		}
	}
	return out
}

// CustomSections returns a copy of the requested custom section names
func (c AnalysisConfig) CustomSections() []string {
	return append([]string(nil), c.customSections...)
}
