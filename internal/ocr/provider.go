package ocr

import (
	"context"
	"encoding/json"
)

// Block types and entity roles as reported by the recognition provider.
const (
	BlockTypeLine        = "LINE"
	BlockTypeWord        = "WORD"
	BlockTypeKeyValueSet = "KEY_VALUE_SET"

	EntityTypeKey   = "KEY"
	EntityTypeValue = "VALUE"

	RelationshipTypeValue = "VALUE"
	RelationshipTypeChild = "CHILD"
)

// BoundingBox locates a block on the page, normalized to [0,1].
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Relationship links a block to related blocks by id.
type Relationship struct {
	Type string
	IDs  []string
}

// Block is one unit of provider output: a line of text, a word, or one half
// of a key/value pairing. Confidence is on the provider's 0-100 scale and is
// nil when the provider reported none.
type Block struct {
	ID            string
	Type          string
	Confidence    *float64
	Text          string
	EntityTypes   []string
	Relationships []Relationship
	Box           *BoundingBox
}

// Provider calls the external recognition service on raw document bytes.
// The second return value is the provider's raw response payload, kept
// opaque for audit and never parsed downstream.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, data []byte) ([]Block, json.RawMessage, error)
}
