package processor

import (
	"context"

	"github.com/google/uuid"

	"github.com/aliskhannn/media-service/internal/model"
)

// PathGenerator names the handle for storage. Originals get a fresh UUID leaf;
// derivatives get the deterministic derived path of the original and chain.
// It must run after every step that changes the body or its extension.
type PathGenerator struct{}

// NewPathGenerator creates a new PathGenerator.
func NewPathGenerator() *PathGenerator { return &PathGenerator{} }

// Name returns the step name.
func (g *PathGenerator) Name() string { return "path_generator" }

// Execute sets the metadata path.
func (g *PathGenerator) Execute(_ context.Context, pc Context) (Context, error) {
	attrs := &pc.Attributes

	if attrs.Chain.IsEmpty() {
		attrs.Media.Metadata.Path = attrs.Media.Metadata.Path.Regenerate(uuid.New())
		return pc, nil
	}

	attrs.Media.Metadata.Path = model.DerivedPath(attrs.Original, attrs.Chain.PathSuffix())
	attrs.Media.Metadata.Transformation = attrs.Chain.String()

	return pc, nil
}
