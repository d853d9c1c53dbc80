package processor

import (
	"github.com/aliskhannn/media-service/internal/model"
	"github.com/aliskhannn/media-service/internal/pipeline"
	"github.com/aliskhannn/media-service/internal/transform"
)

// Attributes is the payload threaded through media pipelines.
type Attributes struct {
	// Media is the handle being transformed.
	Media model.MediaHandle
	// Chain is the transformation chain applied to Media, empty for originals.
	Chain transform.Chain
	// Original is the path derived media names are computed from. For an
	// upload it is the requested path.
	Original model.Path
}

// Context is the pipeline context for media pipelines.
type Context = pipeline.Context[Attributes]

// Step is a media pipeline step.
type Step = pipeline.Step[Attributes]

// NewContext seeds a pipeline context.
func NewContext(media model.MediaHandle, chain transform.Chain, original model.Path) Context {
	return pipeline.NewContext(Attributes{Media: media, Chain: chain, Original: original})
}
