// Package timeseries turns raw pump telemetry into calendar-bucketed,
// gap-filled chart series. All instants are UTC and weeks start on Monday.
package timeseries
