package ocr

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// DefaultConfidenceThreshold gates generic key/value pairs on the key
// block's provider confidence, rescaled to [0,1].
const DefaultConfidenceThreshold = 0.8

// Field is one extracted key/value pair with its confidence and inferred type.
type Field struct {
	FieldName  string       `json:"fieldName"`
	Value      string       `json:"value"`
	Confidence float64      `json:"confidence"`
	Box        *BoundingBox `json:"boundingBox,omitempty"`
	DataType   DataType     `json:"dataType"`
}

// Result is the complete outcome of one extraction run. Raw holds the
// provider's response payload for audit and is never parsed downstream.
type Result struct {
	Success       bool            `json:"success"`
	ExtractedText string          `json:"extractedText"`
	Fields        []Field         `json:"fields"`
	Confidence    float64         `json:"confidence"`
	ProcessedAt   time.Time       `json:"processedAt"`
	Provider      string          `json:"provider"`
	Raw           json.RawMessage `json:"raw,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// Engine orchestrates one provider call and assembles full text, generic
// key/value fields, and document-type-specific fields into a Result.
type Engine struct {
	provider   Provider
	extractors *ExtractorRegistry
	threshold  float64
	timeout    time.Duration
}

// NewEngine constructs an extraction engine. A non-positive threshold falls
// back to DefaultConfidenceThreshold; a non-positive timeout disables the
// per-call deadline.
func NewEngine(provider Provider, extractors *ExtractorRegistry, threshold float64, timeout time.Duration) *Engine {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	if extractors == nil {
		extractors = NewExtractorRegistry()
	}
	return &Engine{
		provider:   provider,
		extractors: extractors,
		threshold:  threshold,
		timeout:    timeout,
	}
}

// Threshold returns the configured provider-confidence threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// Extract runs one extraction pass. Provider failures and malformed block
// lists are reported in the Result, never raised as panics or returned errors,
// so a background caller can always record the outcome on the document.
func (e *Engine) Extract(ctx context.Context, data []byte, documentType string) Result {
	res := Result{
		Provider:    e.provider.Name(),
		ProcessedAt: time.Now().UTC(),
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	blocks, raw, err := e.provider.Analyze(ctx, data)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if len(blocks) == 0 {
		res.Error = "provider returned no blocks"
		return res
	}

	res.Raw = raw
	res.ExtractedText = assembleText(blocks)
	res.Fields = e.extractKeyValues(blocks)

	// Type-specific fields are appended, not merged: duplicates with the
	// generic pass may legitimately occur.
	if ex := e.extractors.Lookup(documentType); ex != nil {
		res.Fields = append(res.Fields, ex.Extract(res.ExtractedText)...)
	}

	res.Confidence = aggregateConfidence(blocks)
	res.Success = true
	return res
}

// assembleText joins line-block text with newlines in provider order. The
// order is not guaranteed to be reading order.
func assembleText(blocks []Block) string {
	var lines []string
	for _, b := range blocks {
		if b.Type == BlockTypeLine && b.Text != "" {
			lines = append(lines, b.Text)
		}
	}
	return strings.Join(lines, "\n")
}

func (e *Engine) extractKeyValues(blocks []Block) []Field {
	byID := make(map[string]Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}

	var fields []Field
	for _, b := range blocks {
		if b.Type != BlockTypeKeyValueSet || !hasEntityType(b, EntityTypeKey) {
			continue
		}

		keyText := blockText(b, byID)
		if keyText == "" {
			continue
		}

		valueBlock, ok := resolveValueBlock(b, byID)
		if !ok {
			continue
		}
		valueText := blockText(valueBlock, byID)
		if valueText == "" {
			continue
		}

		confidence := 0.0
		if b.Confidence != nil {
			confidence = *b.Confidence / 100
		}
		if confidence < e.threshold {
			// Sub-threshold pairs are dropped silently; validation applies
			// its own confidence gating on what survives.
			continue
		}

		name := NormalizeFieldName(keyText)
		if name == "" {
			continue
		}

		box := valueBlock.Box
		if box == nil {
			box = b.Box
		}
		fields = append(fields, Field{
			FieldName:  name,
			Value:      valueText,
			Confidence: confidence,
			Box:        box,
			DataType:   DetectDataType(name, valueText),
		})
	}
	return fields
}

// blockText resolves a block's display text either directly or by
// space-joining the text of its child blocks.
func blockText(b Block, byID map[string]Block) string {
	if b.Text != "" {
		return strings.TrimSpace(b.Text)
	}
	var parts []string
	for _, rel := range b.Relationships {
		if rel.Type != RelationshipTypeChild {
			continue
		}
		for _, id := range rel.IDs {
			if child, ok := byID[id]; ok && child.Text != "" {
				parts = append(parts, child.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func resolveValueBlock(key Block, byID map[string]Block) (Block, bool) {
	for _, rel := range key.Relationships {
		if rel.Type != RelationshipTypeValue {
			continue
		}
		for _, id := range rel.IDs {
			if v, ok := byID[id]; ok {
				return v, true
			}
		}
	}
	return Block{}, false
}

// aggregateConfidence averages every block's confidence, not just the
// extracted fields', rescaled to [0,1]. Zero when no block carries one.
func aggregateConfidence(blocks []Block) float64 {
	var sum float64
	var count int
	for _, b := range blocks {
		if b.Confidence != nil {
			sum += *b.Confidence
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count) / 100
}

func hasEntityType(b Block, entity string) bool {
	for _, e := range b.EntityTypes {
		if e == entity {
			return true
		}
	}
	return false
}
