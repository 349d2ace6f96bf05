package config

import (
	"fmt"
	"time"
)

// Category gate modes for same-category pairs during inference
const (
	GateDeterministic = "deterministic"
	GateRandom        = "random"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Snapshot constraints
	MaxNodesPerSnapshot int
	MaxEdgesPerSnapshot int

	// Inference
	EnableInference          bool
	SimilarityThreshold      float64
	StrongSimilarity         float64
	CategoryGate             string
	CategoryFloor            float64
	CategoryAdmitProbability float64
	RandomSeed               int64
	MaxInferenceNodes        int
	SampleLargeGraphs        bool
	MaxEdgesPerNode          int
	PairBudget               int

	// Layout
	DefaultLayoutMode string

	// Scheduling
	ReconfigureDebounce time.Duration
	InferenceDebounce   time.Duration
	FrameBudget         time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerSnapshot: 5000,
		MaxEdgesPerSnapshot: 50000,

		EnableInference:          true,
		SimilarityThreshold:      0.15,
		StrongSimilarity:         0.3,
		CategoryGate:             GateDeterministic,
		CategoryFloor:            0.05,
		CategoryAdmitProbability: 0.3,
		RandomSeed:               1,
		MaxInferenceNodes:        300,
		SampleLargeGraphs:        false,
		MaxEdgesPerNode:          0, // unlimited
		PairBudget:               2000,

		DefaultLayoutMode: "planar",

		ReconfigureDebounce: 150 * time.Millisecond,
		InferenceDebounce:   300 * time.Millisecond,
		FrameBudget:         16 * time.Millisecond,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter ceilings keep a single view responsive
	config.MaxNodesPerSnapshot = 2000
	config.MaxInferenceNodes = 200
	config.SampleLargeGraphs = true
	config.MaxEdgesPerNode = 12

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxInferenceNodes = 500
	config.ReconfigureDebounce = 100 * time.Millisecond

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [0,1], got %v", c.SimilarityThreshold)
	}
	if c.StrongSimilarity < 0 || c.StrongSimilarity > 1 {
		return fmt.Errorf("strong similarity must be in [0,1], got %v", c.StrongSimilarity)
	}
	if c.CategoryFloor < 0 || c.CategoryFloor > 1 {
		return fmt.Errorf("category floor must be in [0,1], got %v", c.CategoryFloor)
	}
	if c.CategoryAdmitProbability < 0 || c.CategoryAdmitProbability > 1 {
		return fmt.Errorf("category admit probability must be in [0,1], got %v", c.CategoryAdmitProbability)
	}
	switch c.CategoryGate {
	case GateDeterministic, GateRandom:
	default:
		return fmt.Errorf("unknown category gate %q", c.CategoryGate)
	}
	switch c.DefaultLayoutMode {
	case "planar", "volumetric":
	default:
		return fmt.Errorf("unknown layout mode %q", c.DefaultLayoutMode)
	}
	if c.MaxInferenceNodes <= 0 {
		return fmt.Errorf("max inference nodes must be positive")
	}
	if c.PairBudget <= 0 {
		return fmt.Errorf("pair budget must be positive")
	}
	if c.ReconfigureDebounce < 0 || c.InferenceDebounce < 0 {
		return fmt.Errorf("debounce windows cannot be negative")
	}
	return nil
}
