package storage

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	storage_go "github.com/supabase-community/storage-go"
)

type SupabaseStore struct {
	client *storage_go.Client
	bucket string
}

func NewSupabaseStore(client *storage_go.Client, bucket string) *SupabaseStore {
	return &SupabaseStore{client: client, bucket: bucket}
}

func (s *SupabaseStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cacheControl := strconv.Itoa(CacheControlSeconds)
	upsert := false
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		CacheControl: &cacheControl,
		ContentType:  &contentType,
		Upsert:       &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("supabase upload %s/%s: %w", s.bucket, key, err)
	}

	return s.client.GetPublicUrl(s.bucket, key).SignedURL, nil
}
