package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/rs/zerolog/log"
)

type ArchiveStore interface {
	GetDeviceBySerial(ctx context.Context, serial string) (domain.Device, error)
	RawPumpData(ctx context.Context, deviceID int64, from, to time.Time) ([]domain.PumpData, error)
}

// Uploader puts one object into the archive bucket. *cloud.S3Client
// satisfies it.
type Uploader interface {
	UploadDataFile(ctx context.Context, key string, data []byte) error
}

// ArchiveResult describes one uploaded archive object.
type ArchiveResult struct {
	Key     string
	Samples int
}

// ArchiveService copies raw telemetry to object storage. Only raw samples
// are archived, never aggregates.
type ArchiveService struct {
	store    ArchiveStore
	uploader Uploader
	now      func() time.Time
}

func NewArchiveService(store ArchiveStore, uploader Uploader) *ArchiveService {
	return &ArchiveService{store: store, uploader: uploader, now: time.Now}
}

const archiveStamp = "20060102T150405Z"

func ArchiveKey(serial string, from, to time.Time) string {
	return fmt.Sprintf("telemetry/%s/%s_%s.json", serial, from.UTC().Format(archiveStamp), to.UTC().Format(archiveStamp))
}

// Archive uploads the last days days of a device's samples as a JSON array.
func (s *ArchiveService) Archive(ctx context.Context, serial string, days int) (*ArchiveResult, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	dev, err := s.store.GetDeviceBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}

	to := s.now().UTC()
	from := to.Add(-time.Duration(days) * 24 * time.Hour)
	rows, err := s.store.RawPumpData(ctx, dev.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load telemetry: %w", err)
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	key := ArchiveKey(dev.Serial, from, to)
	if err := s.uploader.UploadDataFile(ctx, key, body); err != nil {
		return nil, err
	}

	log.Info().Str("device_serial", dev.Serial).Str("key", key).Int("samples", len(rows)).Msg("telemetry archived")
	return &ArchiveResult{Key: key, Samples: len(rows)}, nil
}
