package domain

import "time"

type Company struct {
	ID      int64   `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Address *string `db:"address" json:"address"`
	City    *string `db:"city" json:"city"`
	State   *string `db:"state" json:"state"`
	Zip     *string `db:"zip" json:"zip"`
	Deleted bool    `db:"deleted" json:"deleted"`
}

// Location is a site owned by a company. Name maps to the legacy
// "location" column.
type Location struct {
	ID          int64   `db:"id" json:"id"`
	CompanyID   *int64  `db:"comp_id" json:"comp_id"`
	Name        *string `db:"location" json:"location"`
	Address     *string `db:"address" json:"address"`
	City        *string `db:"city" json:"city"`
	State       *string `db:"state" json:"state"`
	Zip         *string `db:"zip" json:"zip"`
	WellID      *string `db:"well_id" json:"well_id"`
	Geolocation *string `db:"geolocation" json:"geolocation"`
	Deleted     bool    `db:"deleted" json:"deleted"`
}

type Device struct {
	ID           int64      `db:"id" json:"id"`
	Product      *string    `db:"product" json:"product"`
	Serial       string     `db:"device_serial" json:"device_serial"`
	MfgDate      *time.Time `db:"mfg_date" json:"mfg_date"`
	Board        *string    `db:"board" json:"board"`
	Description  *string    `db:"description" json:"description"`
	SWRev        *string    `db:"sw_rev" json:"sw_rev"`
	LocationID   *int64     `db:"location_id" json:"location_id"`
	CompanyID    *int64     `db:"company_id" json:"company_id"`
	WellID       *string    `db:"well_id" json:"well_id"`
	CompanyName  *string    `db:"company_name" json:"company_name,omitempty"`
	LocationName *string    `db:"location_name" json:"location_name,omitempty"`
}

// DeviceRef is the slice of a device the overview engine works with.
type DeviceRef struct {
	ID     int64  `db:"id" json:"device_id"`
	Serial string `db:"device_serial" json:"device_serial"`
}

type PumpSettings struct {
	ID          int64      `db:"id" json:"id"`
	DeviceID    int64      `db:"device_id" json:"device_id"`
	Hold        *int64     `db:"hold" json:"hold"`
	MinAir      *int64     `db:"min_air" json:"min_air"`
	MaxAir      *int64     `db:"max_air" json:"max_air"`
	Purge       *int64     `db:"purge" json:"purge"`
	MaxIdle     *int64     `db:"max_idle" json:"max_idle"`
	Rest        *int64     `db:"rest" json:"rest"`
	Thres       *int64     `db:"thres" json:"thres"`
	VolPerCycle *int64     `db:"vol_per_cycle" json:"vol_per_cycle"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"update" json:"update"`
}

// PumpData is one raw telemetry sample. Rows are append-only.
type PumpData struct {
	ID           int64     `db:"id" json:"id"`
	DeviceID     int64     `db:"device_id" json:"device_id"`
	CycleCount   *int64    `db:"cycle_count" json:"cycle_count"`
	BadCycles    *int64    `db:"bad_cycles" json:"bad_cycles"`
	VolumePumped *int64    `db:"volume_pumped" json:"volume_pumped"`
	BattVoltage  *float64  `db:"batt_voltage" json:"batt_voltage"`
	CurADC       *int64    `db:"cur_adc" json:"cur_adc"`
	HighADC      *int64    `db:"high_adc" json:"high_adc"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DeviceFilter narrows the device set of an overview or listing.
type DeviceFilter struct {
	CompanyID  int64
	LocationID *int64
	DeviceIDs  []int64
}
