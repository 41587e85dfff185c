package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
	"github.com/rs/zerolog/log"
)

var ErrBadTopic = errors.New("topic must look like pumps/<serial>/data or pumps/<serial>/settings")

type IngestStore interface {
	DeviceIDBySerial(ctx context.Context, serial string, siteID *int64) (int64, error)
	InsertPumpData(ctx context.Context, d *domain.PumpData) error
	InsertPumpSettings(ctx context.Context, s *domain.PumpSettings) error
}

// Alerter is notified when a sample crosses the bad cycle threshold.
type Alerter interface {
	SendBadCycleAlert(ctx context.Context, serial string, badCycles, threshold int64, at time.Time) error
}

// DataMessage is the JSON body published on pumps/<serial>/data.
type DataMessage struct {
	CycleCount   *int64     `json:"cycle_count"`
	BadCycles    *int64     `json:"bad_cycles"`
	VolumePumped *int64     `json:"volume_pumped"`
	BattVoltage  *float64   `json:"batt_voltage"`
	CurADC       *int64     `json:"cur_adc"`
	HighADC      *int64     `json:"high_adc"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// SettingsMessage is the JSON body published on pumps/<serial>/settings.
type SettingsMessage struct {
	Hold        *int64     `json:"hold"`
	MinAir      *int64     `json:"min_air"`
	MaxAir      *int64     `json:"max_air"`
	Purge       *int64     `json:"purge"`
	MaxIdle     *int64     `json:"max_idle"`
	Rest        *int64     `json:"rest"`
	Thres       *int64     `json:"thres"`
	VolPerCycle *int64     `json:"vol_per_cycle"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// IngestService appends MQTT telemetry and configuration messages. Rows
// are never updated.
type IngestService struct {
	store          IngestStore
	alerter        Alerter
	alertThreshold int64
	now            func() time.Time
}

// NewIngestService builds the ingestion path. alerter may be nil, in which
// case no alerts are sent.
func NewIngestService(store IngestStore, alerter Alerter, alertThreshold int64) *IngestService {
	return &IngestService{store: store, alerter: alerter, alertThreshold: alertThreshold, now: time.Now}
}

// ParseTopic splits pumps/<serial>/<kind>.
func ParseTopic(topic string) (serial, kind string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "pumps" || parts[1] == "" {
		return "", "", ErrBadTopic
	}
	switch parts[2] {
	case "data", "settings":
		return parts[1], parts[2], nil
	}
	return "", "", ErrBadTopic
}

// FromMQTT handles one message. Unknown serials are logged and dropped.
func (s *IngestService) FromMQTT(ctx context.Context, topic string, payload []byte) error {
	serial, kind, err := ParseTopic(topic)
	if err != nil {
		return err
	}

	deviceID, err := s.store.DeviceIDBySerial(ctx, serial, nil)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn().Str("device_serial", serial).Str("topic", topic).Msg("unknown device, message dropped")
		return nil
	}
	if err != nil {
		return err
	}

	if kind == "settings" {
		return s.settings(ctx, deviceID, payload)
	}
	return s.data(ctx, serial, deviceID, payload)
}

func (s *IngestService) data(ctx context.Context, serial string, deviceID int64, payload []byte) error {
	var m DataMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return fmt.Errorf("decode data message: %w", err)
	}
	d := &domain.PumpData{
		DeviceID:     deviceID,
		CycleCount:   m.CycleCount,
		BadCycles:    m.BadCycles,
		VolumePumped: m.VolumePumped,
		BattVoltage:  m.BattVoltage,
		CurADC:       m.CurADC,
		HighADC:      m.HighADC,
		CreatedAt:    s.stamp(m.CreatedAt),
	}
	if err := s.store.InsertPumpData(ctx, d); err != nil {
		return err
	}

	if s.alerter != nil && s.alertThreshold > 0 && d.BadCycles != nil && *d.BadCycles >= s.alertThreshold {
		if err := s.alerter.SendBadCycleAlert(ctx, serial, *d.BadCycles, s.alertThreshold, d.CreatedAt); err != nil {
			log.Error().Err(err).Str("device_serial", serial).Msg("bad cycle alert failed")
		}
	}
	return nil
}

func (s *IngestService) settings(ctx context.Context, deviceID int64, payload []byte) error {
	var m SettingsMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return fmt.Errorf("decode settings message: %w", err)
	}
	return s.store.InsertPumpSettings(ctx, &domain.PumpSettings{
		DeviceID:    deviceID,
		Hold:        m.Hold,
		MinAir:      m.MinAir,
		MaxAir:      m.MaxAir,
		Purge:       m.Purge,
		MaxIdle:     m.MaxIdle,
		Rest:        m.Rest,
		Thres:       m.Thres,
		VolPerCycle: m.VolPerCycle,
		CreatedAt:   s.stamp(m.CreatedAt),
	})
}

func (s *IngestService) stamp(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return s.now().UTC()
	}
	return t.UTC()
}
