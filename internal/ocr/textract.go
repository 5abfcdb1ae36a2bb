package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	textracttypes "github.com/aws/aws-sdk-go-v2/service/textract/types"
)

const textractDefaultRegion = "us-east-1"

// TextractProvider implements Provider using AWS Textract document analysis
// with the FORMS feature.
type TextractProvider struct {
	client *textract.Client
}

// NewTextractProvider constructs a Textract-backed provider.
func NewTextractProvider(ctx context.Context) (*TextractProvider, error) {
	region := strings.TrimSpace(os.Getenv("AWS_REGION"))
	if region == "" {
		region = textractDefaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &TextractProvider{client: textract.NewFromConfig(cfg)}, nil
}

// Name identifies the provider in stored OCR data.
func (p *TextractProvider) Name() string { return "aws-textract" }

// Analyze runs one AnalyzeDocument call and maps the response to neutral blocks.
func (p *TextractProvider) Analyze(ctx context.Context, data []byte) ([]Block, json.RawMessage, error) {
	out, err := p.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document:     &textracttypes.Document{Bytes: data},
		FeatureTypes: []textracttypes.FeatureType{textracttypes.FeatureTypeForms},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("textract analyze document: %w", err)
	}

	raw, err := json.Marshal(out.Blocks)
	if err != nil {
		raw = nil
	}

	blocks := make([]Block, 0, len(out.Blocks))
	for _, b := range out.Blocks {
		blocks = append(blocks, mapTextractBlock(b))
	}
	return blocks, raw, nil
}

func mapTextractBlock(b textracttypes.Block) Block {
	block := Block{
		ID:   aws.ToString(b.Id),
		Type: string(b.BlockType),
		Text: aws.ToString(b.Text),
	}
	if b.Confidence != nil {
		conf := float64(*b.Confidence)
		block.Confidence = &conf
	}
	for _, e := range b.EntityTypes {
		block.EntityTypes = append(block.EntityTypes, string(e))
	}
	for _, r := range b.Relationships {
		block.Relationships = append(block.Relationships, Relationship{
			Type: string(r.Type),
			IDs:  append([]string(nil), r.Ids...),
		})
	}
	if b.Geometry != nil && b.Geometry.BoundingBox != nil {
		box := b.Geometry.BoundingBox
		block.Box = &BoundingBox{
			Left:   float64(box.Left),
			Top:    float64(box.Top),
			Width:  float64(box.Width),
			Height: float64(box.Height),
		}
	}
	return block
}

var _ Provider = (*TextractProvider)(nil)
