package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Logo is an image file picked by the administrator.
type Logo struct {
	Filename string
	Data     []byte
}

// UploadLogo stores logo under a fresh random key and returns its public URL.
// The content type is sniffed from the bytes; only images are accepted.
func (m *Manager) UploadLogo(ctx context.Context, logo Logo) (string, error) {
	s, err := m.requireAdmin(ctx)
	if err != nil {
		return "", err
	}
	return m.upload(ctx, s, logo)
}

func (m *Manager) upload(ctx context.Context, s models.Session, logo Logo) (string, error) {
	if len(logo.Data) == 0 {
		return "", apperr.Validation(apperr.CodeLogoNotImage, "logo is empty")
	}
	mt := mimetype.Detect(logo.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", apperr.Validation(apperr.CodeLogoNotImage, fmt.Sprintf("logo %q is %s, not an image", logo.Filename, mt.String()))
	}
	key := uuid.NewString() + mt.Extension()
	path, err := m.uploader.Upload(ctx, s.AccessToken, m.bucket, key, logo.Data, mt.String())
	if err != nil {
		return "", fmt.Errorf("upload logo: %w", err)
	}
	return m.uploader.PublicURL(m.bucket, path), nil
}
