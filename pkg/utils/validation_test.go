package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name    string  `json:"name" validate:"required"`
	Mode    string  `yaml:"mode" validate:"omitempty,oneof=planar volumetric"`
	Ratio   float64 `json:"ratio,omitempty" validate:"gte=0,lte=1"`
	Count   int     `json:"count" validate:"gt=0"`
	Kind    string  `json:"kind"`
	RelType string  `json:"relationshipType" validate:"required_if=Kind relationship_type"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sample
		wantErr string
	}{
		{name: "valid", input: sample{Name: "a", Mode: "planar", Ratio: 0.5, Count: 1}},
		{name: "missing name", input: sample{Ratio: 0.5, Count: 1}, wantErr: "name is required"},
		{name: "bad mode", input: sample{Name: "a", Mode: "radial", Count: 1}, wantErr: "mode must be one of: planar volumetric"},
		{name: "ratio too large", input: sample{Name: "a", Ratio: 2, Count: 1}, wantErr: "ratio must be at most 1"},
		{name: "conditional", input: sample{Name: "a", Count: 1, Kind: "relationship_type"}, wantErr: "relationshipType is required when Kind is relationship_type"},
		{name: "several", input: sample{Ratio: -1}, wantErr: "name is required; ratio must be at least 0; count must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
