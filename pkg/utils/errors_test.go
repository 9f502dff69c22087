package utils

import (
	"testing"
	"time"
)

func TestScrubSecrets(t *testing.T) {
	tests := []struct {
		name    string
		message string
		secrets []string
		want    string
	}{
		{
			name:    "password removed",
			message: "login failed for hugo with password hunter2",
			secrets: []string{"hugo", "hunter2"},
			want:    "login failed for *** with password ***",
		},
		{
			name:    "repeated occurrences",
			message: "hunter2 hunter2",
			secrets: []string{"hunter2"},
			want:    "*** ***",
		},
		{
			name:    "empty secret ignored",
			message: "nothing to hide",
			secrets: []string{""},
			want:    "nothing to hide",
		},
		{
			name:    "no secrets present",
			message: "timed out waiting for selector",
			secrets: []string{"hugo", "hunter2"},
			want:    "timed out waiting for selector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScrubSecrets(tt.message, tt.secrets...); got != tt.want {
				t.Errorf("ScrubSecrets() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{42 * time.Second, "42.00s"},
		{90 * time.Second, "1.5m"},
		{2 * time.Hour, "2.0h"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFindRegexMatch(t *testing.T) {
	matches := FindRegexMatch(`<div data-sitekey="abc123">`, `data-sitekey="([^"]+)"`)
	if len(matches) != 2 || matches[1] != "abc123" {
		t.Errorf("matches = %v", matches)
	}

	if matches := FindRegexMatch("no key here", `data-sitekey="([^"]+)"`); matches != nil {
		t.Errorf("expected nil for non-matching input, got %v", matches)
	}

	if matches := FindRegexMatch("anything", `([`); matches != nil {
		t.Errorf("expected nil for invalid pattern, got %v", matches)
	}
}
