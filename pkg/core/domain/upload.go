package domain

import "time"

const (
	UploadAvatar     = "avatar"
	UploadBackground = "background"
)

// UploadRequest asks for a presigned URL to put a profile image.
type UploadRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=avatar background"`
	ContentType string `json:"contentType" validate:"required,oneof=image/jpeg image/png image/webp image/gif"`
}

type Upload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}
