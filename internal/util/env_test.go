package util

import (
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		set          bool
		defaultValue string
		want         string
	}{
		{name: "unset returns default", set: false, defaultValue: "fallback", want: "fallback"},
		{name: "empty returns default", value: "", set: true, defaultValue: "fallback", want: "fallback"},
		{name: "set returns value", value: "custom", set: true, defaultValue: "fallback", want: "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("LANTERN_TEST_STRING", tt.value)
			}
			got := GetEnvString("LANTERN_TEST_STRING", tt.defaultValue)
			if got != tt.want {
				t.Errorf("GetEnvString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		set          bool
		defaultValue int
		want         int
	}{
		{name: "unset returns default", set: false, defaultValue: 30, want: 30},
		{name: "valid integer", value: "42", set: true, defaultValue: 30, want: 42},
		{name: "negative integer", value: "-5", set: true, defaultValue: 30, want: -5},
		{name: "garbage returns default", value: "abc", set: true, defaultValue: 30, want: 30},
		{name: "float returns default", value: "1.5", set: true, defaultValue: 30, want: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("LANTERN_TEST_INT", tt.value)
			}
			got := GetEnvInt("LANTERN_TEST_INT", tt.defaultValue)
			if got != tt.want {
				t.Errorf("GetEnvInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		set          bool
		defaultValue bool
		want         bool
	}{
		{name: "unset returns default", set: false, defaultValue: true, want: true},
		{name: "true", value: "true", set: true, defaultValue: false, want: true},
		{name: "numeric true", value: "1", set: true, defaultValue: false, want: true},
		{name: "false", value: "false", set: true, defaultValue: true, want: false},
		{name: "garbage returns default", value: "yes please", set: true, defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("LANTERN_TEST_BOOL", tt.value)
			}
			got := GetEnvBool("LANTERN_TEST_BOOL", tt.defaultValue)
			if got != tt.want {
				t.Errorf("GetEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		set          bool
		defaultValue time.Duration
		want         time.Duration
	}{
		{name: "unset returns default", set: false, defaultValue: 15 * time.Second, want: 15 * time.Second},
		{name: "seconds", value: "45s", set: true, defaultValue: 15 * time.Second, want: 45 * time.Second},
		{name: "minutes", value: "2m", set: true, defaultValue: 15 * time.Second, want: 2 * time.Minute},
		{name: "bare number returns default", value: "45", set: true, defaultValue: 15 * time.Second, want: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("LANTERN_TEST_DURATION", tt.value)
			}
			got := GetEnvDuration("LANTERN_TEST_DURATION", tt.defaultValue)
			if got != tt.want {
				t.Errorf("GetEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
