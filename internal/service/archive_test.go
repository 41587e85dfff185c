package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
)

type fakeArchiveStore struct {
	device domain.Device
	rows   []domain.PumpData
	from   time.Time
	to     time.Time
}

func (f *fakeArchiveStore) GetDeviceBySerial(_ context.Context, serial string) (domain.Device, error) {
	if serial != f.device.Serial {
		return domain.Device{}, repository.ErrNotFound
	}
	return f.device, nil
}

func (f *fakeArchiveStore) RawPumpData(_ context.Context, _ int64, from, to time.Time) ([]domain.PumpData, error) {
	f.from, f.to = from, to
	return f.rows, nil
}

type memUploader struct{ objects map[string][]byte }

func (m *memUploader) UploadDataFile(_ context.Context, key string, data []byte) error {
	m.objects[key] = data
	return nil
}

func TestArchive(t *testing.T) {
	store := &fakeArchiveStore{
		device: domain.Device{ID: 2, Serial: "SN-9"},
		rows:   []domain.PumpData{{ID: 1, DeviceID: 2}, {ID: 2, DeviceID: 2}},
	}
	up := &memUploader{objects: map[string][]byte{}}
	s := NewArchiveService(store, up)
	s.now = func() time.Time { return time.Date(2024, 2, 10, 6, 0, 0, 0, time.UTC) }

	res, err := s.Archive(context.Background(), "SN-9", 2)
	if err != nil {
		t.Fatal(err)
	}

	wantKey := "telemetry/SN-9/20240208T060000Z_20240210T060000Z.json"
	if res.Key != wantKey || res.Samples != 2 {
		t.Fatalf("result = %+v", res)
	}
	var got []domain.PumpData
	if err := json.Unmarshal(up.objects[wantKey], &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("archived %d rows", len(got))
	}
	if store.to.Sub(store.from) != 48*time.Hour {
		t.Fatalf("window = %v..%v", store.from, store.to)
	}
}

func TestArchiveRejectsNonPositiveDays(t *testing.T) {
	s := NewArchiveService(&fakeArchiveStore{}, &memUploader{objects: map[string][]byte{}})
	if _, err := s.Archive(context.Background(), "SN-9", 0); err == nil {
		t.Fatal("expected error")
	}
}
