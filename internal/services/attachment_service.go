package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/metafosfato/AgendaCity-Entregavel/internal/helpers"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
	"github.com/metafosfato/AgendaCity-Entregavel/internal/storage"
)

type AttachmentService struct {
	store  storage.ObjectStore
	logger *slog.Logger
	now    func() time.Time
}

func NewAttachmentService(store storage.ObjectStore, logger *slog.Logger) *AttachmentService {
	return &AttachmentService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Check runs the type and size policy over every file and returns the set of
// slots the batch will fill. Nothing is uploaded.
func (as *AttachmentService) Check(files []models.FileUpload) (map[string]bool, error) {
	incoming := make(map[string]bool, len(files))
	for _, f := range files {
		if err := f.CheckPolicy(); err != nil {
			return nil, err
		}
		incoming[f.Slot] = true
	}
	return incoming, nil
}

// UploadAll stores the files one at a time in slot order and records each
// public URL on the event. The first failure stops the batch; objects already
// stored stay where they are.
func (as *AttachmentService) UploadAll(ctx context.Context, event *models.Event, files []models.FileUpload) error {
	bySlot := make(map[string]models.FileUpload, len(files))
	for _, f := range files {
		bySlot[f.Slot] = f
	}

	for _, slot := range models.DocumentSlots {
		f, ok := bySlot[slot.Name]
		if !ok {
			continue
		}
		key := helpers.StorageKey(as.now(), f.Extension())
		url, err := as.store.Upload(ctx, key, f.Data, f.DetectedType())
		if err != nil {
			as.logger.ErrorContext(ctx, "attachment upload failed", "slot", slot.Name, "key", key, "error", err)
			return &models.UploadError{Slot: slot.Name, Err: err}
		}
		if err := event.SetSlotURL(slot.Name, url); err != nil {
			return err
		}
		as.logger.DebugContext(ctx, "attachment uploaded", "slot", slot.Name, "key", key)
	}
	return nil
}
