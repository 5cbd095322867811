package models

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Clock
		wantErr bool
	}{
		{name: "Midnight", input: "00:00", want: Clock{0, 0}},
		{name: "Morning", input: "08:30", want: Clock{8, 30}},
		{name: "End of day", input: "23:59", want: Clock{23, 59}},
		{name: "Padded whitespace", input: " 12:05 ", want: Clock{12, 5}},
		{name: "Hour too large", input: "24:00", wantErr: true},
		{name: "Minute too large", input: "10:60", wantErr: true},
		{name: "Negative hour", input: "-1:00", wantErr: true},
		{name: "Missing colon", input: "0800", wantErr: true},
		{name: "Garbage", input: "soon", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseClock(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseClock(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClockNextAfter(t *testing.T) {
	// Fixed reference: 2024-03-10 14:00:00 local
	now := time.Date(2024, 3, 10, 14, 0, 0, 0, time.Local)

	t.Run("Later today fires today", func(t *testing.T) {
		next := Clock{Hour: 18, Minute: 30}.NextAfter(now)
		want := time.Date(2024, 3, 10, 18, 30, 0, 0, time.Local)
		if !next.Equal(want) {
			t.Fatalf("next = %v, want %v", next, want)
		}
	})

	t.Run("Earlier today rolls to tomorrow", func(t *testing.T) {
		next := Clock{Hour: 8, Minute: 0}.NextAfter(now)
		want := time.Date(2024, 3, 11, 8, 0, 0, 0, time.Local)
		if !next.Equal(want) {
			t.Fatalf("next = %v, want %v", next, want)
		}
	})

	t.Run("Exactly now rolls to tomorrow", func(t *testing.T) {
		next := Clock{Hour: 14, Minute: 0}.NextAfter(now)
		want := time.Date(2024, 3, 11, 14, 0, 0, 0, time.Local)
		if !next.Equal(want) {
			t.Fatalf("next = %v, want %v", next, want)
		}
	})

	t.Run("Always strictly in the future", func(t *testing.T) {
		for hour := 0; hour < 24; hour++ {
			for _, minute := range []int{0, 1, 30, 59} {
				next := Clock{Hour: hour, Minute: minute}.NextAfter(now)
				if !next.After(now) {
					t.Fatalf("Clock{%d,%d}.NextAfter(%v) = %v, not in the future", hour, minute, now, next)
				}
			}
		}
	})
}

func TestSchedulable(t *testing.T) {
	tests := []struct {
		name string
		cfg  QueryConfig
		want bool
	}{
		{
			name: "Automated and enabled",
			cfg:  QueryConfig{Automated: true, Schedule: ScheduleSpec{Enabled: true}},
			want: true,
		},
		{
			name: "Automated but disabled",
			cfg:  QueryConfig{Automated: true, Schedule: ScheduleSpec{Enabled: false}},
			want: false,
		},
		{
			name: "Manual",
			cfg:  QueryConfig{Automated: false, Schedule: ScheduleSpec{Enabled: true}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Schedulable(); got != tt.want {
				t.Fatalf("Schedulable() = %v, want %v", got, tt.want)
			}
		})
	}
}
