package usecase

import (
	"context"
	"fmt"

	"github.com/woosync/backend/internal/domain"
	"go.uber.org/zap"
)

// Uploadable is any record that carries an optional image and an error
// field the pipeline can write to. Products and variants both satisfy it
// through small adapters, so upload failures land on the owning record
// without the pipeline knowing which kind it is.
type Uploadable interface {
	ImageBytes() []byte
	OwnerLabel() string
	RecordError(msg string)
}

// ImagePipeline uploads record images through the content API. A nil
// session disables uploads: the pipeline records an error on the owning
// record instead of failing the surrounding sync.
type ImagePipeline struct {
	session domain.ContentSession
	log     *zap.SugaredLogger
}

// NewImagePipeline creates a pipeline. session may be nil when the content
// API is not configured.
func NewImagePipeline(session domain.ContentSession, log *zap.SugaredLogger) *ImagePipeline {
	return &ImagePipeline{session: session, log: log}
}

// Upload pushes the record's image and returns the remote media ID, or 0
// when the record has no image or the upload could not be performed. A
// failed upload writes an error to the record and never aborts the caller.
func (p *ImagePipeline) Upload(ctx context.Context, owner Uploadable) int64 {
	data := owner.ImageBytes()
	if len(data) == 0 {
		return 0
	}
	if p.session == nil {
		owner.RecordError("Cannot upload image: content API session is not configured.")
		return 0
	}

	filename := fmt.Sprintf("%s.png", owner.OwnerLabel())
	mediaID, err := p.session.UploadMedia(ctx, filename, data)
	if err != nil {
		p.log.Warnw("image upload failed", "owner", owner.OwnerLabel(), "error", err)
		owner.RecordError(fmt.Sprintf("Image upload failed: %v", err))
		return 0
	}
	p.log.Debugw("image uploaded", "owner", owner.OwnerLabel(), "media_id", mediaID)
	return mediaID
}
