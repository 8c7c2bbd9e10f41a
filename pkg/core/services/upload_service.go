package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/ports"
)

const uploadURLTTL = 15 * time.Minute

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type UploadService struct {
	store ports.ObjectStore
	now   clock
}

// NewUploadService accepts a nil store; Presign then reports domain.ErrUploadsDisabled.
func NewUploadService(store ports.ObjectStore) *UploadService {
	return &UploadService{store: store, now: systemClock}
}

func (s *UploadService) Presign(ctx context.Context, userID string, req domain.UploadRequest) (*domain.Upload, error) {
	if s.store == nil {
		return nil, domain.ErrUploadsDisabled
	}
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s/%s%s", req.Kind, userID, uuid.NewString(), imageExtensions[req.ContentType])
	url, err := s.store.PresignPut(ctx, key, req.ContentType, uploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &domain.Upload{
		Key:       key,
		UploadURL: url,
		PublicURL: s.store.PublicURL(key),
		ExpiresAt: s.now().Add(uploadURLTTL),
	}, nil
}
