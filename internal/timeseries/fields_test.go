package timeseries

import (
	"errors"
	"testing"
)

func TestFieldSetValidate(t *testing.T) {
	f := FieldSet{Level: " batt_voltage ", Pressure: "high_adc", Temperature: "cur_adc"}
	if err := f.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Level != "batt_voltage" {
		t.Fatalf("field not trimmed: %q", f.Level)
	}
}

func TestFieldSetValidateRejectsUnknown(t *testing.T) {
	tests := []struct {
		name  string
		set   FieldSet
		param string
		value string
	}{
		{"level", FieldSet{Level: "id", Pressure: "high_adc", Temperature: "cur_adc"}, "levelField", "id"},
		{"pressure", FieldSet{Level: "cur_adc", Pressure: "created_at; drop table", Temperature: "cur_adc"}, "pressureField", "created_at; drop table"},
		{"temperature", FieldSet{Level: "cur_adc", Pressure: "high_adc", Temperature: ""}, "temperatureField", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.set.Validate()
			var invalid *InvalidFieldError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidFieldError, got %v", err)
			}
			if invalid.Param != tc.param || invalid.Value != tc.value {
				t.Fatalf("got %+v", invalid)
			}
		})
	}
}

func TestDefaultFieldsAreAllowed(t *testing.T) {
	f := DefaultFields()
	if err := f.Validate(); err != nil {
		t.Fatal(err)
	}
}
