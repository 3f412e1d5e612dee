// Package dateutil formats timestamps in the layouts exposed by the general toolset.
package dateutil

import (
	"fmt"
	"strconv"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo
)

const (
	// DefaultZone is the zone used when none is configured
	DefaultZone = "America/Sao_Paulo"

	ISOLayout       = "2006-01-02T15:04:05.999999999"
	ReadableLayout  = "January 02, 2006 15:04:05"
	BrazilianLayout = "02/01/2006 15:04:05"
)

// Clock returns the current time
type Clock func() time.Time

// Formatted holds one instant rendered in every supported layout
type Formatted struct {
	ISO       string `json:"iso"`
	Readable  string `json:"readable"`
	BRFormat  string `json:"br_format"`
	Timestamp string `json:"timestamp"`
}

// Formatter renders instants in a fixed zone
type Formatter struct {
	loc   *time.Location
	clock Clock
}

// New creates a formatter for the named zone. A nil clock means time.Now.
func New(zone string, clock Clock) (*Formatter, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %s: %w", zone, err)
	}
	if clock == nil {
		clock = time.Now
	}
	return &Formatter{loc: loc, clock: clock}, nil
}

// Location returns the formatter's zone
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// Now formats the clock's current time
func (f *Formatter) Now() Formatted {
	return f.Format(f.clock())
}

// Format renders t in the formatter's zone. Timestamp is Unix milliseconds.
func (f *Formatter) Format(t time.Time) Formatted {
	local := t.In(f.loc)
	return Formatted{
		ISO:       ToISO(local),
		Readable:  ToReadable(local),
		BRFormat:  ToBrazilian(local),
		Timestamp: strconv.FormatInt(t.UnixMilli(), 10),
	}
}

// ToISO formats t as ISO-8601 without zone, in t's own location.
func ToISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// ToReadable formats t like "December 31, 2023 23:59:58".
func ToReadable(t time.Time) string {
	return t.Format(ReadableLayout)
}

// ToBrazilian formats t as dd/mm/yyyy hh:mm:ss.
func ToBrazilian(t time.Time) string {
	return t.Format(BrazilianLayout)
}
