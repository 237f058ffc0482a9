// Package comprehend adapts AWS Comprehend PII detection to the stage-2
// redaction client interface.
package comprehend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscomp "github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"

	"github.com/mcpshield/mcpshield/internal/domain/ner"
)

// minScore filters low-confidence detections. Comprehend scores are 0..1;
// below this the false-positive rate mangles too much legitimate text.
const minScore = 0.5

// api is the slice of the Comprehend client the detector uses. Kept narrow
// so tests can stub it.
type api interface {
	ContainsPiiEntities(ctx context.Context, in *awscomp.ContainsPiiEntitiesInput, opts ...func(*awscomp.Options)) (*awscomp.ContainsPiiEntitiesOutput, error)
	DetectPiiEntities(ctx context.Context, in *awscomp.DetectPiiEntitiesInput, opts ...func(*awscomp.Options)) (*awscomp.DetectPiiEntitiesOutput, error)
}

// Detector implements ner.Client over AWS Comprehend.
type Detector struct {
	client api
	logger *slog.Logger
}

var _ ner.Client = (*Detector)(nil)

// New builds a detector using the default AWS credential chain.
func New(ctx context.Context, region string, logger *slog.Logger) (*Detector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Detector{client: awscomp.NewFromConfig(cfg), logger: logger}, nil
}

// ContainsPII runs the cheap document-level probe and returns the PII labels
// Comprehend reports above the confidence floor.
func (d *Detector) ContainsPII(ctx context.Context, text, language string) ([]string, error) {
	out, err := d.client.ContainsPiiEntities(ctx, &awscomp.ContainsPiiEntitiesInput{
		Text:         aws.String(text),
		LanguageCode: types.LanguageCode(language),
	})
	if err != nil {
		return nil, fmt.Errorf("comprehend contains-pii: %w", err)
	}

	labels := make([]string, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l.Score != nil && *l.Score < minScore {
			continue
		}
		labels = append(labels, string(l.Name))
	}
	return labels, nil
}

// DetectPII locates PII entity spans above the confidence floor.
func (d *Detector) DetectPII(ctx context.Context, text, language string) ([]ner.Entity, error) {
	out, err := d.client.DetectPiiEntities(ctx, &awscomp.DetectPiiEntitiesInput{
		Text:         aws.String(text),
		LanguageCode: types.LanguageCode(language),
	})
	if err != nil {
		return nil, fmt.Errorf("comprehend detect-pii: %w", err)
	}

	entities := make([]ner.Entity, 0, len(out.Entities))
	for _, e := range out.Entities {
		if e.Score != nil && *e.Score < minScore {
			continue
		}
		if e.BeginOffset == nil || e.EndOffset == nil {
			d.logger.Warn("comprehend entity without offsets skipped",
				"entity_type", string(e.Type))
			continue
		}
		entities = append(entities, ner.Entity{
			Type:        string(e.Type),
			BeginOffset: int(*e.BeginOffset),
			EndOffset:   int(*e.EndOffset),
		})
	}
	return entities, nil
}
