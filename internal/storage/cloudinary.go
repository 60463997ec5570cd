package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore keeps images under one folder and documents under another.
// Documents are stored as raw resources so PDFs and Word files are served
// untouched.
type CloudinaryStore struct {
	cld         *cloudinary.Cloudinary
	imageFolder string
	docFolder   string
}

func NewCloudinaryStore(cld *cloudinary.Cloudinary, imageFolder, docFolder string) *CloudinaryStore {
	return &CloudinaryStore{cld: cld, imageFolder: imageFolder, docFolder: docFolder}
}

// placement picks the folder, resource type and public id for an upload.
// Image public ids drop the extension since Cloudinary appends the format.
func (s *CloudinaryStore) placement(key, contentType string) (folder, resourceType, publicID string) {
	if strings.HasPrefix(contentType, "image/") {
		return s.imageFolder, "image", strings.TrimSuffix(key, path.Ext(key))
	}
	return s.docFolder, "raw", key
}

func (s *CloudinaryStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	folder, resourceType, publicID := s.placement(key, contentType)

	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       folder,
		ResourceType: resourceType,
		Overwrite:    api.Bool(false),
		Tags:         []string{"agendacity"},
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload %s: %w", key, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload %s: %s", key, result.Error.Message)
	}
	return result.SecureURL, nil
}
