package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"goeat/internal/model"
)

const DefaultPartnersPath = "configs/partners.yaml"

// PartnerConfig is one partner entry of partners.yaml.
type PartnerConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// ManuallyOpen left out keeps the stored flag; new rows stay unset.
	ManuallyOpen *bool               `yaml:"manually_open,omitempty"`
	Schedule     []DayScheduleConfig `yaml:"schedule,omitempty"`
}

// DayScheduleConfig is a weekly entry for a single day.
type DayScheduleConfig struct {
	Day         string `yaml:"day"`          // "MONDAY"
	IsOpen      bool   `yaml:"is_open"`      // false keeps times as given
	OpeningTime string `yaml:"opening_time"` // "08:00"
	ClosingTime string `yaml:"closing_time"` // "22:00"
}

// PartnersConfig is the root of partners.yaml.
type PartnersConfig struct {
	Partners []PartnerConfig `yaml:"partners"`
}

// LoadPartnersConfig loads and validates the partner seed file.
func LoadPartnersConfig(path string) (*PartnersConfig, error) {
	if path == "" {
		path = DefaultPartnersPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read partners config: %w", err)
	}

	var cfg PartnersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse partners config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate partners config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *PartnersConfig) Validate() error {
	ids := make(map[uuid.UUID]bool)

	for i, p := range c.Partners {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return fmt.Errorf("partner[%d]: invalid id '%s'", i, p.ID)
		}
		if ids[id] {
			return fmt.Errorf("partner[%d]: duplicate id %s", i, id)
		}
		ids[id] = true

		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("partner[%d]: name is required", i)
		}

		days := make(map[string]bool)
		for j, d := range p.Schedule {
			prefix := fmt.Sprintf("partner[%d].schedule[%d]", i, j)
			day := strings.ToUpper(strings.TrimSpace(d.Day))
			if !validDay(day) {
				return fmt.Errorf("%s: invalid day '%s'", prefix, d.Day)
			}
			if days[day] {
				return fmt.Errorf("%s: duplicate day %s", prefix, day)
			}
			days[day] = true

			if err := validateDay(d, prefix); err != nil {
				return err
			}
		}
	}

	return nil
}

var weekDays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

func validDay(day string) bool {
	for _, d := range weekDays {
		if d == day {
			return true
		}
	}
	return false
}

func validateDay(d DayScheduleConfig, prefix string) error {
	if !d.IsOpen && d.OpeningTime == "" && d.ClosingTime == "" {
		return nil
	}
	if d.IsOpen && (d.OpeningTime == "" || d.ClosingTime == "") {
		return fmt.Errorf("%s: opening_time and closing_time are required for an open day", prefix)
	}

	var opening, closing model.ClockTime
	var err error
	if d.OpeningTime != "" {
		if opening, err = model.ParseClockTime(d.OpeningTime); err != nil {
			return fmt.Errorf("%s.opening_time: invalid format '%s', expected HH:MM", prefix, d.OpeningTime)
		}
	}
	if d.ClosingTime != "" {
		if closing, err = model.ParseClockTime(d.ClosingTime); err != nil {
			return fmt.Errorf("%s.closing_time: invalid format '%s', expected HH:MM", prefix, d.ClosingTime)
		}
	}
	if d.OpeningTime != "" && d.ClosingTime != "" && closing.Before(opening) {
		return fmt.Errorf("%s: closing_time must not be before opening_time", prefix)
	}
	return nil
}

// String returns a summary of the configuration.
func (c *PartnersConfig) String() string {
	days := 0
	for _, p := range c.Partners {
		days += len(p.Schedule)
	}
	return fmt.Sprintf("PartnersConfig: %d partners, %d schedule entries", len(c.Partners), days)
}
