package processor

import (
	"context"

	"github.com/gabriel-vasile/mimetype"
)

// ContentInfo sets content type and length from the body.
type ContentInfo struct{}

// NewContentInfo creates a new ContentInfo.
func NewContentInfo() *ContentInfo { return &ContentInfo{} }

// Name returns the step name.
func (c *ContentInfo) Name() string { return "content_info" }

// Execute sniffs the body.
func (c *ContentInfo) Execute(_ context.Context, pc Context) (Context, error) {
	media := &pc.Attributes.Media
	media.Metadata.ContentType = mimetype.Detect(media.Body).String()
	media.Metadata.ContentLength = len(media.Body)

	return pc, nil
}
