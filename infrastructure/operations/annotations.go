package operations

import (
	"context"
	"fmt"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var (
	_ ports.Annotator = (*CommentAnnotation)(nil)
	_ ports.Annotator = (*HighlightAnnotation)(nil)
)

// CommentAnnotation attaches a free-text comment to a dataset without
// altering its data.
type CommentAnnotation struct {
	operationBase
	config CommentAnnotationConfig
}

// CommentAnnotationConfig is the parameter set of a comment annotation.
type CommentAnnotationConfig struct {
	// Comment is the annotation text.
	Comment string `yaml:"comment" validate:"required"`
}

// NewCommentAnnotation creates the annotation from raw task
// configuration.
func NewCommentAnnotation(config map[string]any) (ports.Operation, error) {
	op := &CommentAnnotation{
		operationBase: operationBase{
			name:    "CommentAnnotation",
			family:  domain.FamilyAnnotation,
			version: "1.0.0",
		},
	}
	if err := decodeConfig(subConfig(config, "parameters"), &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults is a no-op; an empty comment is invalid, not defaulted.
func (c *CommentAnnotation) SetDefaults() {}

// Validate requires a comment text.
func (c *CommentAnnotation) Validate() error {
	if err := validate.Struct(c.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (c *CommentAnnotation) Parameters() map[string]any { return parametersMap(c.config) }

// Annotate builds the annotation for the dataset.
func (c *CommentAnnotation) Annotate(_ context.Context, _ *domain.Dataset) (domain.Annotation, error) {
	return domain.Annotation{
		Type:    c.name,
		Content: map[string]any{"comment": c.config.Comment},
	}, nil
}

// HighlightAnnotation marks a first-axis range of a dataset, e.g. an
// artifact region or a feature of interest.
type HighlightAnnotation struct {
	operationBase
	config HighlightAnnotationConfig
}

// HighlightAnnotationConfig is the parameter set of a highlight.
type HighlightAnnotationConfig struct {
	// Range is the highlighted axis range [start, stop].
	Range []float64 `yaml:"range" validate:"required,len=2"`
	// Comment optionally explains the highlight.
	Comment string `yaml:"comment"`
}

// NewHighlightAnnotation creates the annotation from raw task
// configuration.
func NewHighlightAnnotation(config map[string]any) (ports.Operation, error) {
	op := &HighlightAnnotation{
		operationBase: operationBase{
			name:    "HighlightAnnotation",
			family:  domain.FamilyAnnotation,
			version: "1.0.0",
		},
	}
	if err := decodeConfig(subConfig(config, "parameters"), &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults is a no-op.
func (h *HighlightAnnotation) SetDefaults() {}

// Validate requires a two-element range.
func (h *HighlightAnnotation) Validate() error {
	if err := validate.Struct(h.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (h *HighlightAnnotation) Parameters() map[string]any { return parametersMap(h.config) }

// Annotate builds the annotation for the dataset.
func (h *HighlightAnnotation) Annotate(_ context.Context, _ *domain.Dataset) (domain.Annotation, error) {
	content := map[string]any{"range": h.config.Range}
	if h.config.Comment != "" {
		content["comment"] = h.config.Comment
	}
	return domain.Annotation{Type: h.name, Content: content}, nil
}
