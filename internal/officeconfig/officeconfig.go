// Package officeconfig reads the customs office pool from a TOML file.
package officeconfig

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/OpenNSW/customs/internal/customs"
)

// File is the top-level document.
type File struct {
	Offices []Office `toml:"office"`
}

// Office describes one office and its rosters. Empty ids are generated.
type Office struct {
	ID         string          `toml:"id"`
	Profile    customs.Profile `toml:"profile"`
	Params     customs.Params  `toml:"params"`
	Inspectors []Inspector     `toml:"inspector"`
	Operators  []Operator      `toml:"operator"`
}

type Inspector struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
	Rank string `toml:"rank"`
	Post string `toml:"post"`
}

type Operator struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
	Post string `toml:"post"`
}

// Load reads and validates an office pool file.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read offices file: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates an office pool document.
func Parse(b []byte) (*File, error) {
	var f File
	if err := toml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse offices file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks ids, profiles and params of every office.
func (f *File) Validate() error {
	if len(f.Offices) == 0 {
		return errors.New("offices file declares no office")
	}
	seen := make(map[string]bool)
	for n, o := range f.Offices {
		if err := checkID(seen, o.ID); err != nil {
			return fmt.Errorf("office #%d: %w", n+1, err)
		}
		if err := o.Profile.Validate(); err != nil {
			return fmt.Errorf("office #%d: %w", n+1, err)
		}
		if err := o.Params.Validate(); err != nil {
			return fmt.Errorf("office #%d: %w", n+1, err)
		}
		for _, i := range o.Inspectors {
			if i.Name == "" {
				return fmt.Errorf("office #%d: inspector name is required", n+1)
			}
			if err := checkID(seen, i.ID); err != nil {
				return fmt.Errorf("office #%d inspector %s: %w", n+1, i.Name, err)
			}
		}
		for _, op := range o.Operators {
			if err := checkID(seen, op.ID); err != nil {
				return fmt.Errorf("office #%d operator %s: %w", n+1, op.Name, err)
			}
		}
	}
	return nil
}

func checkID(seen map[string]bool, raw string) error {
	if raw == "" {
		return nil
	}
	if _, err := uuid.Parse(raw); err != nil {
		return fmt.Errorf("invalid id %q: %w", raw, err)
	}
	if seen[raw] {
		return fmt.Errorf("duplicate id %s", raw)
	}
	seen[raw] = true
	return nil
}

func parseOrNew(raw string) uuid.UUID {
	if id, err := uuid.Parse(raw); err == nil {
		return id
	}
	return uuid.New()
}

// Build creates the offices with their rosters. Offices without work hours get the
// default 09:00 to 20:00.
func (f *File) Build() ([]*customs.Office, error) {
	out := make([]*customs.Office, 0, len(f.Offices))
	for _, entry := range f.Offices {
		profile := entry.Profile
		if profile.WorkHours == nil {
			hours := customs.DefaultWorkHours
			profile.WorkHours = &hours
		}
		o := customs.LoadOffice(parseOrNew(entry.ID), profile, entry.Params)
		for _, i := range entry.Inspectors {
			if err := o.AddInspector(customs.LoadInspector(parseOrNew(i.ID), i.Name, i.Post, i.Rank)); err != nil {
				return nil, err
			}
		}
		for _, op := range entry.Operators {
			if err := o.AddOperator(customs.Operator{ID: parseOrNew(op.ID), Name: op.Name, Post: op.Post}); err != nil {
				return nil, err
			}
		}
		out = append(out, o)
	}
	return out, nil
}
