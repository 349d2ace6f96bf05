package valueobjects

import (
	"encoding/json"
	"errors"
	"strings"
)

// NodeID is a value object representing a node identifier within a snapshot.
// Knowledge stores hand out both string and integer ids; both normalise to a
// string so the arena can key on one type.
type NodeID string

// NewNodeID creates a NodeID from a raw string
func NewNodeID(id string) (NodeID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("node ID cannot be empty")
	}
	return NodeID(id), nil
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return string(id)
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id == other
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id == ""
}

// UnmarshalJSON accepts both `"abc"` and `42`.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NodeID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("node ID must be a string or a number")
	}
	*id = NodeID(n.String())
	return nil
}
