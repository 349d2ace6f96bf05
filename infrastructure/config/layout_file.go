package config

import (
	"fmt"
	"os"
	"time"

	domainconfig "kgview/domain/config"
	"kgview/domain/layout"
	"kgview/pkg/utils"

	"gopkg.in/yaml.v3"
)

// LayoutFile is the YAML overlay for layout and inference tunables. Fields
// left out of the file keep their defaults.
type LayoutFile struct {
	Mode      string           `yaml:"mode" validate:"omitempty,oneof=planar volumetric 2d 3d"`
	Layout    layout.Params    `yaml:",inline"`
	Inference InferenceOverlay `yaml:"inference"`
	Debounce  DebounceOverlay  `yaml:"debounce"`
}

// InferenceOverlay overrides inference settings of the domain config
type InferenceOverlay struct {
	Enabled             *bool    `yaml:"enabled"`
	SimilarityThreshold *float64 `yaml:"similarity_threshold" validate:"omitempty,gte=0,lte=1"`
	StrongSimilarity    *float64 `yaml:"strong_similarity" validate:"omitempty,gte=0,lte=1"`
	CategoryGate        *string  `yaml:"category_gate" validate:"omitempty,oneof=deterministic random"`
	CategoryFloor       *float64 `yaml:"category_floor" validate:"omitempty,gte=0,lte=1"`
	MaxNodes            *int     `yaml:"max_nodes" validate:"omitempty,gte=0"`
	MaxEdgesPerNode     *int     `yaml:"max_edges_per_node" validate:"omitempty,gte=0"`
	PairBudget          *int     `yaml:"pair_budget" validate:"omitempty,gt=0"`
}

// DebounceOverlay overrides the scheduling windows, in milliseconds
type DebounceOverlay struct {
	ReconfigureMS *int `yaml:"reconfigure_ms" validate:"omitempty,gte=0,lte=10000"`
	InferenceMS   *int `yaml:"inference_ms" validate:"omitempty,gte=0,lte=10000"`
}

// LoadLayoutFile reads and validates a layout overlay
func LoadLayoutFile(path string) (*LayoutFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}
	return ParseLayoutFile(data)
}

// ParseLayoutFile decodes a layout overlay on top of the default parameters
func ParseLayoutFile(data []byte) (*LayoutFile, error) {
	file := &LayoutFile{Layout: layout.DefaultParams()}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse layout file: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// Validate checks the overlay tags and the resulting layout parameters
func (f *LayoutFile) Validate() error {
	if err := utils.ValidateStruct(f); err != nil {
		return fmt.Errorf("invalid layout file: %w", err)
	}
	if err := f.Layout.Validate(); err != nil {
		return fmt.Errorf("invalid layout file: %w", err)
	}
	return nil
}

// LayoutMode returns the configured mode, or "" when the file leaves it out
func (f *LayoutFile) LayoutMode() layout.Mode {
	if f.Mode == "" {
		return ""
	}
	mode, err := layout.ParseMode(f.Mode)
	if err != nil {
		return ""
	}
	return mode
}

// ApplyTo writes the overlay into a domain config
func (f *LayoutFile) ApplyTo(dc *domainconfig.DomainConfig) {
	inf := f.Inference
	if inf.Enabled != nil {
		dc.EnableInference = *inf.Enabled
	}
	if inf.SimilarityThreshold != nil {
		dc.SimilarityThreshold = *inf.SimilarityThreshold
	}
	if inf.StrongSimilarity != nil {
		dc.StrongSimilarity = *inf.StrongSimilarity
	}
	if inf.CategoryGate != nil {
		dc.CategoryGate = *inf.CategoryGate
	}
	if inf.CategoryFloor != nil {
		dc.CategoryFloor = *inf.CategoryFloor
	}
	if inf.MaxNodes != nil {
		dc.MaxInferenceNodes = *inf.MaxNodes
	}
	if inf.MaxEdgesPerNode != nil {
		dc.MaxEdgesPerNode = *inf.MaxEdgesPerNode
	}
	if inf.PairBudget != nil {
		dc.PairBudget = *inf.PairBudget
	}
	if mode := f.LayoutMode(); mode != "" {
		dc.DefaultLayoutMode = string(mode)
	}
	if f.Debounce.ReconfigureMS != nil {
		dc.ReconfigureDebounce = msDuration(*f.Debounce.ReconfigureMS)
	}
	if f.Debounce.InferenceMS != nil {
		dc.InferenceDebounce = msDuration(*f.Debounce.InferenceMS)
	}
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
