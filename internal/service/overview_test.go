package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/timeseries"
)

type fakeOverviewStore struct {
	mu sync.Mutex

	companies map[int64]domain.Company
	locations map[int64]domain.Location
	devices   map[string]domain.Device
	scoped    []domain.DeviceRef
	vpc       map[int64]float64
	partials  []domain.DayPartial
	latest    []domain.LatestReading
	queryErr  error

	calls map[string]int
}

func newFakeOverviewStore() *fakeOverviewStore {
	return &fakeOverviewStore{
		companies: map[int64]domain.Company{1: {ID: 1, Name: "Acme"}},
		locations: map[int64]domain.Location{},
		devices:   map[string]domain.Device{},
		vpc:       map[int64]float64{},
		calls:     map[string]int{},
	}
}

func (f *fakeOverviewStore) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeOverviewStore) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeOverviewStore) GetCompany(_ context.Context, id int64) (domain.Company, error) {
	f.hit("GetCompany")
	c, ok := f.companies[id]
	if !ok {
		return domain.Company{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeOverviewStore) GetCompanyLocation(_ context.Context, companyID, locationID int64) (domain.Location, error) {
	f.hit("GetCompanyLocation")
	l, ok := f.locations[locationID]
	if !ok || l.CompanyID == nil || *l.CompanyID != companyID {
		return domain.Location{}, repository.ErrNotFound
	}
	return l, nil
}

func (f *fakeOverviewStore) GetDeviceBySerial(_ context.Context, serial string) (domain.Device, error) {
	f.hit("GetDeviceBySerial")
	d, ok := f.devices[serial]
	if !ok {
		return domain.Device{}, repository.ErrNotFound
	}
	return d, nil
}

func (f *fakeOverviewStore) ScopeDevices(_ context.Context, _ domain.DeviceFilter) ([]domain.DeviceRef, error) {
	f.hit("ScopeDevices")
	return f.scoped, nil
}

func (f *fakeOverviewStore) LatestVolumePerCycle(_ context.Context, _ []int64, _ time.Time) (map[int64]float64, error) {
	f.hit("LatestVolumePerCycle")
	return f.vpc, nil
}

func (f *fakeOverviewStore) DailyPartials(_ context.Context, _ []int64, _, _ time.Time, _, _ string) ([]domain.DayPartial, error) {
	f.hit("DailyPartials")
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.partials, nil
}

func (f *fakeOverviewStore) LatestReadings(_ context.Context, _ []int64, _, _ time.Time, _ string) ([]domain.LatestReading, error) {
	f.hit("LatestReadings")
	return f.latest, nil
}

func int64p(v int64) *int64 { return &v }

func strp(s string) *string { return &s }

func intp(v int) *int { return &v }

// 2024-01-10 is a Wednesday.
var testNow = time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)

func newTestOverview(store *fakeOverviewStore) *OverviewService {
	s := NewOverviewService(store, time.Second)
	s.now = func() time.Time { return testNow }
	return s
}

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestOverviewRejectsInvalidFieldBeforeAnyQuery(t *testing.T) {
	store := newFakeOverviewStore()
	s := newTestOverview(store)

	fields := timeseries.DefaultFields()
	fields.Pressure = "password_hash"
	_, err := s.CompanyOverview(context.Background(), 1, OverviewQuery{Fields: fields, IncludeEmpty: true})

	var invalid *timeseries.InvalidFieldError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidFieldError, got %v", err)
	}
	if invalid.Param != "pressureField" {
		t.Fatalf("param = %q", invalid.Param)
	}
	if len(store.calls) != 0 {
		t.Fatalf("store was queried: %v", store.calls)
	}
}

func TestOverviewNotFound(t *testing.T) {
	store := newFakeOverviewStore()
	s := newTestOverview(store)
	q := OverviewQuery{Fields: timeseries.DefaultFields()}

	t.Run("company", func(t *testing.T) {
		if _, err := s.CompanyOverview(context.Background(), 99, q); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("location", func(t *testing.T) {
		if _, err := s.LocationOverview(context.Background(), 1, 5, q); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("got %v", err)
		}
		if store.count("ScopeDevices") != 0 {
			t.Fatal("devices resolved before the site was checked")
		}
	})
}

func TestOverviewEmptyDeviceSet(t *testing.T) {
	store := newFakeOverviewStore()
	store.locations[5] = domain.Location{ID: 5, CompanyID: int64p(1), Name: strp("North Field")}
	s := newTestOverview(store)

	out, err := s.LocationOverview(context.Background(), 1, 5, OverviewQuery{
		Period:       timeseries.PeriodRequest{Period: "weekly"},
		Fields:       timeseries.DefaultFields(),
		IncludeEmpty: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.GallonsPumped) != 0 || len(out.LiquidLevel) != 0 || len(out.FocusMainPressure) != 0 || len(out.TemperatureRealtime) != 0 {
		t.Fatalf("expected empty series, got %+v", out)
	}
	if out.GallonsPumped == nil || out.TemperatureRealtime == nil {
		t.Fatal("empty series must be non-nil so they encode as []")
	}
	if store.count("DailyPartials") != 0 {
		t.Fatal("telemetry queried for an empty device set")
	}
}

func TestOverviewRangeTooLargeBeforeTelemetry(t *testing.T) {
	store := newFakeOverviewStore()
	store.scoped = []domain.DeviceRef{{ID: 1, Serial: "A"}}
	s := newTestOverview(store)

	_, err := s.CompanyOverview(context.Background(), 1, OverviewQuery{
		Period:       timeseries.PeriodRequest{Days: intp(1000), Granularity: "day"},
		Fields:       timeseries.DefaultFields(),
		IncludeEmpty: true,
	})

	var tooLarge *timeseries.RangeTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected RangeTooLargeError, got %v", err)
	}
	if tooLarge.MaxPoints != timeseries.MaxPoints || tooLarge.RequestedPoints <= timeseries.MaxPoints {
		t.Fatalf("got %+v", tooLarge)
	}
	if store.count("DailyPartials")+store.count("LatestReadings")+store.count("LatestVolumePerCycle") != 0 {
		t.Fatalf("telemetry queried: %v", store.calls)
	}
}

func TestLocationOverviewWeeklyFilled(t *testing.T) {
	store := newFakeOverviewStore()
	store.locations[5] = domain.Location{ID: 5, CompanyID: int64p(1), Name: strp("North Field")}
	store.scoped = []domain.DeviceRef{{ID: 1, Serial: "A"}, {ID: 2, Serial: "B"}}
	store.vpc = map[int64]float64{1: 5}
	store.partials = []domain.DayPartial{
		{DeviceID: 1, Day: day(5), SumCycles: 4, LevelSum: 10, LevelCount: 2, PressureSum: 6, PressureCount: 3},
	}
	measured := time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC)
	store.latest = []domain.LatestReading{{DeviceID: 1, DeviceSerial: "A", Value: 71, MeasuredAt: &measured}}
	s := newTestOverview(store)

	out, err := s.LocationOverview(context.Background(), 1, 5, OverviewQuery{
		Period:       timeseries.PeriodRequest{Period: "weekly"},
		Fields:       timeseries.DefaultFields(),
		IncludeEmpty: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if out.LocationName == nil || *out.LocationName != "North Field" {
		t.Fatalf("location name = %v", out.LocationName)
	}
	if !out.DateRange.From.Equal(testNow.Add(-6*24*time.Hour)) || !out.DateRange.To.Equal(testNow) {
		t.Fatalf("date range = %+v", out.DateRange)
	}

	// two devices times seven days, Jan 4 through Jan 10
	for name, rows := range map[string][]domain.Row{
		"gallons":  out.GallonsPumped,
		"level":    out.LiquidLevel,
		"pressure": out.FocusMainPressure,
	} {
		if len(rows) != 14 {
			t.Fatalf("%s: %d rows, want 14", name, len(rows))
		}
		if rows[0].DeviceID != 1 || rows[7].DeviceID != 2 {
			t.Fatalf("%s: rows not in device order", name)
		}
		if !rows[0].Date.Equal(day(4)) || rows[0].Label != "2024-01-04" {
			t.Fatalf("%s: first row = %+v", name, rows[0])
		}
	}

	jan5 := out.GallonsPumped[1]
	if jan5.Value != 20 || jan5.Label != "2024-01-05" {
		t.Fatalf("gallons on Jan 5 = %+v, want 4 cycles * 5", jan5)
	}
	if v := out.LiquidLevel[1].Value; v != 5 {
		t.Fatalf("level mean = %v, want 5", v)
	}
	if v := out.FocusMainPressure[1].Value; v != 2 {
		t.Fatalf("pressure mean = %v, want 2", v)
	}
	if out.GallonsPumped[8].Value != 0 || out.GallonsPumped[8].DeviceSerial != "B" {
		t.Fatalf("filled row = %+v", out.GallonsPumped[8])
	}

	if len(out.TemperatureRealtime) != 2 {
		t.Fatalf("temperature rows = %d", len(out.TemperatureRealtime))
	}
	if out.TemperatureRealtime[0].Value != 71 || out.TemperatureRealtime[1].MeasuredAt != nil {
		t.Fatalf("temperature = %+v", out.TemperatureRealtime)
	}
}

func TestCompanyOverviewTotalCompact(t *testing.T) {
	store := newFakeOverviewStore()
	store.scoped = []domain.DeviceRef{{ID: 1, Serial: "A"}, {ID: 2, Serial: "B"}}
	store.partials = []domain.DayPartial{
		{DeviceID: 2, Day: day(8), SumVolume: 30},
		{DeviceID: 2, Day: day(9), SumVolume: 12},
	}
	s := newTestOverview(store)

	out, err := s.CompanyOverview(context.Background(), 1, OverviewQuery{
		Period:       timeseries.PeriodRequest{Days: intp(3)},
		Fields:       timeseries.DefaultFields(),
		IncludeEmpty: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.CompanyName != "Acme" {
		t.Fatalf("company = %q", out.CompanyName)
	}
	want := []domain.CompactRow{{DeviceSerial: "A", Value: 0}, {DeviceSerial: "B", Value: 42}}
	if len(out.GallonsPumped) != len(want) {
		t.Fatalf("gallons = %+v", out.GallonsPumped)
	}
	for i := range want {
		if out.GallonsPumped[i] != want[i] {
			t.Fatalf("gallons[%d] = %+v, want %+v", i, out.GallonsPumped[i], want[i])
		}
	}
	if len(out.TemperatureRealtime) != 2 {
		t.Fatalf("temperature = %+v", out.TemperatureRealtime)
	}
}

func TestOverviewWithoutIncludeEmptyKeepsSparseRows(t *testing.T) {
	store := newFakeOverviewStore()
	store.scoped = []domain.DeviceRef{{ID: 1, Serial: "A"}, {ID: 2, Serial: "B"}}
	store.partials = []domain.DayPartial{{DeviceID: 2, Day: day(9), SumVolume: 7}}
	measured := day(9)
	store.latest = []domain.LatestReading{{DeviceID: 1, DeviceSerial: "A", Value: 64, MeasuredAt: &measured}}
	s := newTestOverview(store)

	out, err := s.CompanyOverview(context.Background(), 1, OverviewQuery{
		Period: timeseries.PeriodRequest{Days: intp(1000), Granularity: "day"},
		Fields: timeseries.DefaultFields(),
	})
	if err != nil {
		t.Fatalf("cap must not apply without includeEmpty: %v", err)
	}
	if len(out.GallonsPumped) != 1 || out.GallonsPumped[0].DeviceSerial != "B" {
		t.Fatalf("gallons = %+v", out.GallonsPumped)
	}
	// a device only shows up in the metrics it reported
	if len(out.TemperatureRealtime) != 1 || out.TemperatureRealtime[0].DeviceSerial != "A" {
		t.Fatalf("temperature = %+v", out.TemperatureRealtime)
	}
	if len(out.LiquidLevel) != 1 || out.LiquidLevel[0].DeviceSerial != "B" {
		t.Fatalf("level = %+v", out.LiquidLevel)
	}
}

func TestLocationOverviewHugeWindowHitsCap(t *testing.T) {
	store := newFakeOverviewStore()
	store.locations[5] = domain.Location{ID: 5, CompanyID: int64p(1)}
	store.scoped = []domain.DeviceRef{{ID: 1, Serial: "A"}}
	s := newTestOverview(store)

	_, err := s.LocationOverview(context.Background(), 1, 5, OverviewQuery{
		Period:       timeseries.PeriodRequest{Days: intp(200000), Granularity: "day"},
		Fields:       timeseries.DefaultFields(),
		IncludeEmpty: true,
	})
	var tooLarge *timeseries.RangeTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected RangeTooLargeError, got %v", err)
	}
	if store.count("DailyPartials") != 0 {
		t.Fatal("telemetry queried past the cap")
	}
}

func TestCompanyOverviewHugeTotalWindowStartsInPast(t *testing.T) {
	store := newFakeOverviewStore()
	store.scoped = []domain.DeviceRef{{ID: 1, Serial: "A"}}
	s := newTestOverview(store)

	out, err := s.CompanyOverview(context.Background(), 1, OverviewQuery{
		Period: timeseries.PeriodRequest{Days: intp(200000)},
		Fields: timeseries.DefaultFields(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !out.DateRange.From.Before(out.DateRange.To) {
		t.Fatalf("date range = %+v", out.DateRange)
	}
}

func TestOverviewQueryFailure(t *testing.T) {
	store := newFakeOverviewStore()
	store.scoped = []domain.DeviceRef{{ID: 1, Serial: "A"}}
	store.queryErr = errors.New("connection reset")
	s := newTestOverview(store)

	out, err := s.CompanyOverview(context.Background(), 1, OverviewQuery{Fields: timeseries.DefaultFields()})
	if err == nil || out != nil {
		t.Fatalf("expected failure without partial result, got %v, %v", out, err)
	}
	if !errors.Is(err, store.queryErr) {
		t.Fatalf("error chain lost the cause: %v", err)
	}
}

func TestDeviceOverview(t *testing.T) {
	store := newFakeOverviewStore()
	store.devices["SN-1"] = domain.Device{ID: 3, Serial: "SN-1", CompanyID: int64p(1), CompanyName: strp("Acme")}
	store.partials = []domain.DayPartial{{DeviceID: 3, Day: day(10), SumVolume: 9}}
	s := newTestOverview(store)

	t.Run("invalid days", func(t *testing.T) {
		if _, err := s.DeviceOverview(context.Background(), "SN-1", 2); !errors.Is(err, ErrInvalidDays) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("unknown serial", func(t *testing.T) {
		if _, err := s.DeviceOverview(context.Background(), "nope", 7); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("daily series", func(t *testing.T) {
		out, err := s.DeviceOverview(context.Background(), "SN-1", 7)
		if err != nil {
			t.Fatal(err)
		}
		// Jan 3 15:30 through Jan 10 15:30 touches eight calendar days
		if len(out.GallonsPumped) != 8 {
			t.Fatalf("rows = %d, want 8", len(out.GallonsPumped))
		}
		last := out.GallonsPumped[7]
		if last.Value != 9 || last.Label != "2024-01-10" {
			t.Fatalf("last = %+v", last)
		}
		if out.DeviceSerial != "SN-1" || out.CompanyName != "Acme" {
			t.Fatalf("header = %+v", out)
		}
	})
}
