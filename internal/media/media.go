// Package media talks to the external image host that stores post images.
// Browsers upload directly to the provider with the parameters from UploadAuth;
// the API only keeps the resulting url and file id and deletes files it no
// longer references.
package media

import (
	"context"
	"errors"
	"fmt"

	"socialapp/internal/config"
)

// UploadAuth holds the parameters a client needs for a direct upload.
// ImageKit fills Token, Expire and Signature; S3 fills UploadURL and Key.
type UploadAuth struct {
	Token       string `json:"token,omitempty"`
	Expire      int64  `json:"expire,omitempty"`
	Signature   string `json:"signature,omitempty"`
	PublicKey   string `json:"publicKey,omitempty"`
	URLEndpoint string `json:"urlEndpoint,omitempty"`
	UploadURL   string `json:"uploadUrl,omitempty"`
	Key         string `json:"key,omitempty"`
	PublicURL   string `json:"publicUrl,omitempty"`
}

type Store interface {
	UploadAuth(ctx context.Context) (*UploadAuth, error)
	Delete(ctx context.Context, fileID string) error
}

var ErrEmptyFileID = errors.New("media: empty file id")

// New builds the provider selected in cfg.
func New(ctx context.Context, cfg config.MediaConfig) (Store, error) {
	switch cfg.Provider {
	case "imagekit":
		return NewImageKit(cfg.ImageKit), nil
	case "s3":
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("media: unknown provider %q", cfg.Provider)
	}
}
