package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/service"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/timeseries"
)

const maxPageSize = 1000

// parsePagination reads page and pageSize, falling back to 1 and 10 for
// anything missing or out of range.
func parsePagination(c *fiber.Ctx) domain.Page {
	p := domain.Page{Page: 1, PageSize: 10}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n >= 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(c.Query("pageSize")); err == nil && n >= 1 && n <= maxPageSize {
		p.PageSize = n
	}
	return p
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func optionalID(c *fiber.Ctx, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &id, nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// parseIDList splits a comma separated id list, ignoring blank entries.
func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid device id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func firstQuery(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		if v := c.Query(k); v != "" {
			return v
		}
	}
	return ""
}

func parseDays(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > timeseries.MaxDays {
		return nil, fmt.Errorf("days must be an integer between 1 and %d", timeseries.MaxDays)
	}
	return &n, nil
}

func fieldOr(raw, def string) string {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	return raw
}

// parseOverviewQuery reads the window, filter and field overrides shared by
// the company and location overviews. Field values are validated later by
// the service.
func parseOverviewQuery(c *fiber.Ctx) (service.OverviewQuery, error) {
	var q service.OverviewQuery

	days, err := parseDays(firstQuery(c, "days", "day"))
	if err != nil {
		return q, err
	}
	q.Period = timeseries.PeriodRequest{
		Period:      c.Query("period"),
		Days:        days,
		Granularity: c.Query("granularity"),
	}

	if q.DeviceIDs, err = parseIDList(firstQuery(c, "deviceIds", "deviceId")); err != nil {
		return q, err
	}

	q.IncludeEmpty = truthy(c.Query("includeEmpty", "true"))

	def := timeseries.DefaultFields()
	q.Fields = timeseries.FieldSet{
		Level:       fieldOr(c.Query("levelField"), def.Level),
		Pressure:    fieldOr(c.Query("pressureField"), def.Pressure),
		Temperature: fieldOr(c.Query("temperatureField"), def.Temperature),
	}
	return q, nil
}

var historyRanges = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// historyFrom turns the range query parameter into the start of the window.
// Unknown values fall back to 24h.
func historyFrom(c *fiber.Ctx, now time.Time) time.Time {
	d, ok := historyRanges[c.Query("range")]
	if !ok {
		d = historyRanges["24h"]
	}
	return now.Add(-d)
}
