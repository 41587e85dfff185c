package repository

import (
	"encoding/json"
	"testing"
)

func TestNullableIDTellsNullFromAbsent(t *testing.T) {
	var p struct {
		SiteID NullableID `json:"site_id"`
	}
	if err := json.Unmarshal([]byte(`{}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.SiteID.Set {
		t.Fatal("absent key marked as set")
	}

	if err := json.Unmarshal([]byte(`{"site_id":null}`), &p); err != nil {
		t.Fatal(err)
	}
	if !p.SiteID.Set || p.SiteID.Value != nil {
		t.Fatalf("null = %+v", p.SiteID)
	}

	if err := json.Unmarshal([]byte(`{"site_id":12}`), &p); err != nil {
		t.Fatal(err)
	}
	if !p.SiteID.Set || p.SiteID.Value == nil || *p.SiteID.Value != 12 {
		t.Fatalf("value = %+v", p.SiteID)
	}

	if err := json.Unmarshal([]byte(`{"site_id":"north"}`), &p); err == nil {
		t.Fatal("non-numeric site_id accepted")
	}
}
