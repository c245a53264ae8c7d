// Package inventory holds the sellable-unit model of a room type and the pure
// availability calculation over bookings and blackout dates.
//
// Nothing in this package performs I/O or reads the clock. Callers load the
// facts, call Compute, and decide what to do with the result.
package inventory

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// Booking statuses as stored by the booking subsystem.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusCheckedIn  = "checked_in"
	StatusCheckedOut = "checked_out"
	StatusCancelled  = "cancelled"
	StatusRejected   = "rejected"
)

// ConsumesInventory reports whether a booking in the given status holds units.
func ConsumesInventory(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusCancelled, StatusRejected:
		return false
	default:
		return true
	}
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// FormatDay renders t as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// RoomInventory is the sellable-unit identity of a room type.
// Named units win over the allotment whenever any exist.
type RoomInventory struct {
	RoomTypeID  string
	UnitNumbers []string
	Allotment   int
}

// Capacity returns the true number of sellable units.
func (r RoomInventory) Capacity() int {
	if n := len(r.namedUnits()); n > 0 {
		return n
	}
	if r.Allotment < 0 {
		return 0
	}
	return r.Allotment
}

func (r RoomInventory) namedUnits() []string {
	seen := make(map[string]struct{}, len(r.UnitNumbers))
	out := make([]string, 0, len(r.UnitNumbers))
	for _, u := range r.UnitNumbers {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Stay is a booking reduced to what the calculator needs.
type Stay struct {
	BookingID  string
	RoomTypeID string
	CheckIn    time.Time
	CheckOut   time.Time
	Status     string

	// Units lists allocated unit identifiers. Empty means a pooled booking.
	Units []string

	// UnitsCount is how many anonymous units a pooled booking holds.
	// Values below one count as one.
	UnitsCount int
}

// Covers applies the half-open rule: check-in day occupied, check-out day free.
func (s Stay) Covers(d time.Time) bool {
	d = Day(d)
	return !d.Before(Day(s.CheckIn)) && d.Before(Day(s.CheckOut))
}

func (s Stay) anonymousUnits() int {
	if s.UnitsCount < 1 {
		return 1
	}
	return s.UnitsCount
}

// Blackout removes one unit, or the whole room type when UnitNumber is nil,
// from sale on Date.
type Blackout struct {
	RoomTypeID string
	Date       time.Time
	UnitNumber *string
}

// DayAvailability is one line of the per-date result.
type DayAvailability struct {
	Date      string `json:"date"`
	Available int    `json:"available"`
}

// Result is the output of Compute.
type Result struct {
	RoomTypeID string            `json:"room_type_id"`
	Capacity   int               `json:"capacity"`
	Days       []DayAvailability `json:"availability"`

	// Overbooked lists dates where demand exceeded capacity before clamping.
	Overbooked []string `json:"overbooked_dates,omitempty"`

	// Unconfigured is set when the room type has neither units nor allotment.
	Unconfigured bool `json:"unconfigured,omitempty"`
}

// ByDate returns the result as a date→count map.
func (r Result) ByDate() map[string]int {
	out := make(map[string]int, len(r.Days))
	for _, d := range r.Days {
		out[d.Date] = d.Available
	}
	return out
}

// Compute returns available units for every day in [from, to).
func Compute(room RoomInventory, from, to time.Time, stays []Stay, blackouts []Blackout) Result {
	capacity := room.Capacity()
	res := Result{
		RoomTypeID:   room.RoomTypeID,
		Capacity:     capacity,
		Unconfigured: capacity == 0,
		Days:         []DayAvailability{},
	}

	start, end := Day(from), Day(to)
	if !start.Before(end) {
		return res
	}

	active := make([]Stay, 0, len(stays))
	for _, s := range stays {
		if s.RoomTypeID != "" && room.RoomTypeID != "" && s.RoomTypeID != room.RoomTypeID {
			continue
		}
		if !ConsumesInventory(s.Status) {
			continue
		}
		active = append(active, s)
	}

	byDay := make(map[string][]Blackout)
	for _, b := range blackouts {
		if b.RoomTypeID != "" && room.RoomTypeID != "" && b.RoomTypeID != room.RoomTypeID {
			continue
		}
		key := FormatDay(b.Date)
		byDay[key] = append(byDay[key], b)
	}

	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateLayout)

		occupied := make(map[string]struct{})
		anonymous := 0
		for _, s := range active {
			if !s.Covers(d) {
				continue
			}
			units := 0
			for _, u := range s.Units {
				u = strings.TrimSpace(u)
				if u == "" {
					continue
				}
				occupied[u] = struct{}{}
				units++
			}
			if units == 0 {
				anonymous += s.anonymousUnits()
			}
		}

		wholeRoom := false
		for _, b := range byDay[key] {
			if b.UnitNumber == nil || strings.TrimSpace(*b.UnitNumber) == "" {
				wholeRoom = true
				continue
			}
			occupied[strings.TrimSpace(*b.UnitNumber)] = struct{}{}
		}

		demand := len(occupied) + anonymous
		if demand > capacity {
			res.Overbooked = append(res.Overbooked, key)
		}

		available := capacity - demand
		if wholeRoom || available < 0 {
			available = 0
		}
		res.Days = append(res.Days, DayAvailability{Date: key, Available: available})
	}

	return res
}

// SortedDays returns a date→count map as ordered lines. Used when a snapshot
// captured as a map has to be transmitted in a stable order.
func SortedDays(byDate map[string]int) []DayAvailability {
	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DayAvailability, 0, len(keys))
	for _, k := range keys {
		out = append(out, DayAvailability{Date: k, Available: byDate[k]})
	}
	return out
}
