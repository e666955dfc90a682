package customs

import (
	"fmt"
	"time"
)

const clockLayout = "15:04"

// Location is the place an office operates from. Timezone is an IANA zone name.
type Location struct {
	Country  string `json:"country" toml:"country"`
	Region   string `json:"region" toml:"region"`
	City     string `json:"city" toml:"city"`
	Timezone string `json:"timezone" toml:"timezone"`
}

// WorkHours is the daily opening window in HH:MM.
type WorkHours struct {
	Open  string `json:"open" toml:"open"`
	Close string `json:"close" toml:"close"`
}

// DefaultWorkHours is applied by NewOffice.
var DefaultWorkHours = WorkHours{Open: "09:00", Close: "20:00"}

func (w WorkHours) Validate() error {
	open, err := time.Parse(clockLayout, w.Open)
	if err != nil {
		return &InvalidFieldError{Field: "workHours.open", Value: w.Open, Reason: "expected HH:MM"}
	}
	closing, err := time.Parse(clockLayout, w.Close)
	if err != nil {
		return &InvalidFieldError{Field: "workHours.close", Value: w.Close, Reason: "expected HH:MM"}
	}
	if !open.Before(closing) {
		return &InvalidFieldError{Field: "workHours", Value: w.String(), Reason: "office must open before it closes"}
	}
	return nil
}

// IsOpen reports whether the wall clock of t falls inside the window.
func (w WorkHours) IsOpen(t time.Time) bool {
	open, err1 := time.Parse(clockLayout, w.Open)
	closing, err2 := time.Parse(clockLayout, w.Close)
	if err1 != nil || err2 != nil {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= open.Hour()*60+open.Minute() && minute < closing.Hour()*60+closing.Minute()
}

func (w WorkHours) String() string {
	return fmt.Sprintf("%s-%s", w.Open, w.Close)
}

// Profile is the descriptive part of an office. Every field is optional.
type Profile struct {
	Name       string     `json:"name,omitempty" toml:"name"`
	Location   *Location  `json:"location,omitempty" toml:"location"`
	WorkHours  *WorkHours `json:"workHours,omitempty" toml:"work_hours"`
	Competence string     `json:"competence,omitempty" toml:"competence"`
	Phone      string     `json:"phone,omitempty" toml:"phone"`
	Email      string     `json:"email,omitempty" toml:"email"`
}

// IsOpen reports whether the office accepts walk-ins at t, evaluated in the office
// timezone when one is set. Offices without hours are always open.
func (p Profile) IsOpen(t time.Time) bool {
	if p.WorkHours == nil {
		return true
	}
	if p.Location != nil && p.Location.Timezone != "" {
		if loc, err := time.LoadLocation(p.Location.Timezone); err == nil {
			t = t.In(loc)
		}
	}
	return p.WorkHours.IsOpen(t)
}

func (p Profile) Validate() error {
	if p.WorkHours != nil {
		if err := p.WorkHours.Validate(); err != nil {
			return err
		}
	}
	if p.Location != nil && p.Location.Timezone != "" {
		if _, err := time.LoadLocation(p.Location.Timezone); err != nil {
			return &InvalidFieldError{Field: "location.timezone", Value: p.Location.Timezone, Reason: "unknown timezone"}
		}
	}
	return nil
}
