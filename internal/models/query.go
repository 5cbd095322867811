package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Search provider identifiers
const (
	ProviderWebAPI   = "webapi"
	ProviderNewsFeed = "newsfeed"
)

// Clock is a time-of-day trigger (24h, minute granularity)
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" string
func ParseClock(s string) (Clock, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("invalid schedule time %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("invalid schedule hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("invalid schedule minute %q", parts[1])
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// NextAfter returns the next occurrence of the clock time strictly after now,
// in now's location: today if the instant is still ahead, otherwise tomorrow.
func (c Clock) NextAfter(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), c.Hour, c.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// ScheduleSpec holds the recurring-run settings of an automated query
type ScheduleSpec struct {
	Time           string     `gorm:"default:'00:00'" json:"time"` // HH:MM, 24h
	Enabled        bool       `gorm:"default:false" json:"enabled"`
	ExecutionCount int        `gorm:"default:0" json:"execution_count"`
	LastRunAt      *time.Time `json:"last_run_at"`
}

// Trigger returns the parsed trigger time. Malformed values fall back to
// midnight so a bad row can never take down the scheduler.
func (s ScheduleSpec) Trigger() (Clock, error) {
	clock, err := ParseClock(s.Time)
	if err != nil {
		return Clock{}, err
	}
	return clock, nil
}

// QueryConfig is a saved search intent, manual or recurring.
// Automated configs carry schedule settings in the embedded ScheduleSpec;
// for manual configs the sub-record is ignored.
type QueryConfig struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Name       string       `json:"name"`
	Query      string       `gorm:"not null" json:"query"`
	Language   string       `json:"language"`
	Region     string       `json:"region"`
	Location   string       `json:"location"`
	SafeSearch bool         `gorm:"default:true" json:"safe_search"`
	ResultType string       `json:"result_type"` // web, news, images
	TimeRange  string       `json:"time_range"`  // day, week, month, year
	Filter     string       `json:"filter"`      // free-form provider filter
	Provider   string       `gorm:"default:'webapi'" json:"provider"`
	Automated  bool         `gorm:"default:false;index" json:"automated"`
	Schedule   ScheduleSpec `gorm:"embedded;embeddedPrefix:schedule_" json:"schedule"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// Schedulable reports whether the config should be considered by the scheduler
func (q *QueryConfig) Schedulable() bool {
	return q.Automated && q.Schedule.Enabled
}
