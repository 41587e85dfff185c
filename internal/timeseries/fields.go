package timeseries

import (
	"fmt"
	"slices"
	"strings"
)

// AllowedFields are the pump_data columns a caller may chart as level,
// pressure or temperature.
var AllowedFields = []string{
	"cycle_count",
	"bad_cycles",
	"volume_pumped",
	"batt_voltage",
	"cur_adc",
	"high_adc",
}

// InvalidFieldError reports a field override outside AllowedFields.
type InvalidFieldError struct {
	Param string
	Value string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %q for %s", e.Value, e.Param)
}

// FieldSet selects the telemetry column behind each chartable metric.
type FieldSet struct {
	Level       string
	Pressure    string
	Temperature string
}

// DefaultFields is what the dashboards chart when no override is supplied.
func DefaultFields() FieldSet {
	return FieldSet{
		Level:       "cur_adc",
		Pressure:    "high_adc",
		Temperature: "cur_adc",
	}
}

// Validate trims every field and checks it against AllowedFields, reporting
// the first offending query parameter.
func (f *FieldSet) Validate() error {
	checks := []struct {
		param string
		value *string
	}{
		{"levelField", &f.Level},
		{"pressureField", &f.Pressure},
		{"temperatureField", &f.Temperature},
	}
	for _, c := range checks {
		*c.value = strings.TrimSpace(*c.value)
		if !IsAllowedField(*c.value) {
			return &InvalidFieldError{Param: c.param, Value: *c.value}
		}
	}
	return nil
}

// IsAllowedField reports whether name is a chartable pump_data column.
func IsAllowedField(name string) bool {
	return slices.Contains(AllowedFields, name)
}
