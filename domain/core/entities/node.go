package entities

import (
	"kgview/domain/core/valueobjects"
	pkgerrors "kgview/pkg/errors"
)

// MaxKeyPhrases bounds the key phrase list carried by a node
const MaxKeyPhrases = 8

// Default values substituted for missing or non-finite numeric fields
const (
	DefaultImportance = 0.6
	DefaultConfidence = 0.7
	DefaultRecency    = 0.5
)

// NodeSpec carries the already-analysed fields used to construct a Node.
// Nil numeric pointers mean "missing" and receive the documented defaults.
type NodeSpec struct {
	ID         valueobjects.NodeID
	Label      string
	Category   valueobjects.Category
	Importance *float64
	Confidence *float64
	Recency    *float64
	KeyPhrases []string
	Content    string
	Summary    string
	Position   *valueobjects.Position
}

// Node is a knowledge unit placed in the view
type Node struct {
	id         valueobjects.NodeID
	label      string
	category   valueobjects.Category
	importance float64
	confidence float64
	recency    float64
	keyPhrases []string
	content    string
	summary    string
	position   valueobjects.Position
	velocity   valueobjects.Position
	hasInitial bool
}

// NewNode creates a node, clamping every unit-interval field
func NewNode(spec NodeSpec) (*Node, error) {
	if spec.ID.IsZero() {
		return nil, pkgerrors.NewValidationError("node ID cannot be empty")
	}

	category := spec.Category
	if !category.IsValid() {
		category = valueobjects.CategoryConcept
	}

	phrases := spec.KeyPhrases
	if len(phrases) > MaxKeyPhrases {
		phrases = phrases[:MaxKeyPhrases]
	}

	node := &Node{
		id:         spec.ID,
		label:      spec.Label,
		category:   category,
		importance: valueobjects.ClampUnitPtr(spec.Importance, DefaultImportance),
		confidence: valueobjects.ClampUnitPtr(spec.Confidence, DefaultConfidence),
		recency:    valueobjects.ClampUnitPtr(spec.Recency, DefaultRecency),
		keyPhrases: append([]string(nil), phrases...),
		content:    spec.Content,
		summary:    spec.Summary,
	}
	if spec.Position != nil && spec.Position.IsFinite() {
		node.position = *spec.Position
		node.hasInitial = true
	}

	return node, nil
}

// ID returns the node's identifier
func (n *Node) ID() valueobjects.NodeID { return n.id }

// Label returns the display label
func (n *Node) Label() string { return n.label }

// Category returns the node's category tag
func (n *Node) Category() valueobjects.Category { return n.category }

// Importance returns the clamped importance
func (n *Node) Importance() float64 { return n.importance }

// Confidence returns the clamped confidence
func (n *Node) Confidence() float64 { return n.confidence }

// Recency returns the clamped recency
func (n *Node) Recency() float64 { return n.recency }

// Content returns the free text body
func (n *Node) Content() string { return n.content }

// Summary returns the optional summary
func (n *Node) Summary() string { return n.summary }

// KeyPhrases returns a copy of the ordered key phrases
func (n *Node) KeyPhrases() []string {
	return append([]string(nil), n.keyPhrases...)
}

// Position returns the last known position
func (n *Node) Position() valueobjects.Position { return n.position }

// Velocity returns the last known velocity (volumetric mode only)
func (n *Node) Velocity() valueobjects.Position { return n.velocity }

// HasInitialPosition reports whether the snapshot supplied coordinates
func (n *Node) HasInitialPosition() bool { return n.hasInitial }

// MoveTo records a new position. Non-finite positions are ignored.
func (n *Node) MoveTo(pos, velocity valueobjects.Position) {
	if !pos.IsFinite() {
		return
	}
	n.position = pos
	if velocity.IsFinite() {
		n.velocity = velocity
	}
}

// SetKeyPhrases replaces the phrase list, keeping at most MaxKeyPhrases
func (n *Node) SetKeyPhrases(phrases []string) {
	if len(phrases) > MaxKeyPhrases {
		phrases = phrases[:MaxKeyPhrases]
	}
	n.keyPhrases = append([]string(nil), phrases...)
}
