// Package snapshot holds the wire shape of graph snapshots served by the
// knowledge store. Field aliases used by different store versions are
// accepted on decode; encoding always uses the canonical names.
package snapshot

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"kgview/domain/core/valueobjects"
	pkgerrors "kgview/pkg/errors"
)

// Snapshot is a full node/edge set as delivered by the store
type Snapshot struct {
	Nodes []RawNode `json:"nodes"`
	Links []RawEdge `json:"links,omitempty"`
	Edges []RawEdge `json:"edges,omitempty"`
}

// RawNode is a node before analysis. Nil numeric fields are missing.
type RawNode struct {
	ID         valueobjects.NodeID `json:"id"`
	Label      string              `json:"label,omitempty"`
	Category   string              `json:"category,omitempty"`
	Importance *float64            `json:"importance,omitempty"`
	Confidence *float64            `json:"confidence,omitempty"`
	Recency    *float64            `json:"recency,omitempty"`
	KeyPhrases []string            `json:"keyPhrases,omitempty"`
	Content    string              `json:"content,omitempty"`
	Summary    string              `json:"summary,omitempty"`
	X          *float64            `json:"x,omitempty"`
	Y          *float64            `json:"y,omitempty"`
	Z          *float64            `json:"z,omitempty"`
}

// RawEdge is an explicit relationship before validation
type RawEdge struct {
	Source     valueobjects.NodeID `json:"source"`
	Target     valueobjects.NodeID `json:"target"`
	Type       string              `json:"type,omitempty"`
	Strength   *float64            `json:"strength,omitempty"`
	Confidence *float64            `json:"confidence,omitempty"`
	Label      string              `json:"label,omitempty"`
}

// Decode parses a snapshot document
func Decode(data []byte) (*Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, pkgerrors.NewValidationError("snapshot body is empty")
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, pkgerrors.NewValidationError("malformed snapshot").WithCause(err)
	}
	return &snap, nil
}

// Encode renders the snapshot with canonical field names
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// IsEmpty reports whether the snapshot carries no nodes
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Nodes) == 0
}

// AllEdges returns links followed by edges
func (s *Snapshot) AllEdges() []RawEdge {
	if s == nil {
		return nil
	}
	all := make([]RawEdge, 0, len(s.Links)+len(s.Edges))
	all = append(all, s.Links...)
	return append(all, s.Edges...)
}

// Position returns the supplied coordinates, if both X and Y are present
func (n RawNode) Position() *valueobjects.Position {
	if n.X == nil || n.Y == nil {
		return nil
	}
	pos := valueobjects.Position{X: *n.X, Y: *n.Y}
	if n.Z != nil {
		pos.Z = *n.Z
	}
	return &pos
}

// UnmarshalJSON accepts the label|title|name, type|category and
// keyPhrases|key_phrases|keywords aliases
func (n *RawNode) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID              valueobjects.NodeID `json:"id"`
		Label           string              `json:"label"`
		Title           string              `json:"title"`
		Name            string              `json:"name"`
		Category        string              `json:"category"`
		Type            string              `json:"type"`
		Importance      json.RawMessage     `json:"importance"`
		Confidence      json.RawMessage     `json:"confidence"`
		Recency         json.RawMessage     `json:"recency"`
		KeyPhrases      []string            `json:"keyPhrases"`
		KeyPhrasesSnake []string            `json:"key_phrases"`
		Keywords        []string            `json:"keywords"`
		Content         string              `json:"content"`
		Summary         string              `json:"summary"`
		X               json.RawMessage     `json:"x"`
		Y               json.RawMessage     `json:"y"`
		Z               json.RawMessage     `json:"z"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*n = RawNode{
		ID:         aux.ID,
		Label:      firstNonEmpty(aux.Label, aux.Title, aux.Name),
		Category:   firstNonEmpty(aux.Category, aux.Type),
		Importance: optionalFloat(aux.Importance),
		Confidence: optionalFloat(aux.Confidence),
		Recency:    optionalFloat(aux.Recency),
		KeyPhrases: firstNonEmptySlice(aux.KeyPhrases, aux.KeyPhrasesSnake, aux.Keywords),
		Content:    aux.Content,
		Summary:    aux.Summary,
		X:          optionalFloat(aux.X),
		Y:          optionalFloat(aux.Y),
		Z:          optionalFloat(aux.Z),
	}
	return nil
}

// UnmarshalJSON accepts the source|sourceId|from, target|targetId|to,
// type|relationship and strength|weight aliases. Endpoints may also be
// objects carrying an id, as rendering libraries rewrite them.
func (e *RawEdge) UnmarshalJSON(data []byte) error {
	var aux struct {
		Source       json.RawMessage `json:"source"`
		SourceID     json.RawMessage `json:"sourceId"`
		From         json.RawMessage `json:"from"`
		Target       json.RawMessage `json:"target"`
		TargetID     json.RawMessage `json:"targetId"`
		To           json.RawMessage `json:"to"`
		Type         string          `json:"type"`
		Relationship string          `json:"relationship"`
		Strength     json.RawMessage `json:"strength"`
		Weight       json.RawMessage `json:"weight"`
		Confidence   json.RawMessage `json:"confidence"`
		Label        string          `json:"label"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	strength := optionalFloat(aux.Strength)
	if strength == nil {
		strength = optionalFloat(aux.Weight)
	}

	*e = RawEdge{
		Source:     firstEndpoint(aux.Source, aux.SourceID, aux.From),
		Target:     firstEndpoint(aux.Target, aux.TargetID, aux.To),
		Type:       firstNonEmpty(aux.Type, aux.Relationship),
		Strength:   strength,
		Confidence: optionalFloat(aux.Confidence),
		Label:      aux.Label,
	}
	return nil
}

// optionalFloat reads a JSON number or numeric string. Anything else is missing.
func optionalFloat(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return &v
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func firstEndpoint(candidates ...json.RawMessage) valueobjects.NodeID {
	for _, raw := range candidates {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}

		var id valueobjects.NodeID
		if raw[0] == '{' {
			var obj struct {
				ID valueobjects.NodeID `json:"id"`
			}
			if err := json.Unmarshal(raw, &obj); err == nil {
				id = obj.ID
			}
		} else if err := json.Unmarshal(raw, &id); err != nil {
			continue
		}
		if !id.IsZero() {
			return id
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptySlice(values ...[]string) []string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}
