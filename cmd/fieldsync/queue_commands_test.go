package main

import (
	"strings"
	"testing"

	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
)

func TestFormatLocation(t *testing.T) {
	cases := []struct {
		name     string
		location queue.Location
		expected string
	}{
		{"absent", queue.Location{}, "-"},
		{
			"full fix",
			queue.Location{
				Latitude:  testsupport.FloatPtr(47.6097),
				Longitude: testsupport.FloatPtr(-122.3331),
				AccuracyM: testsupport.FloatPtr(8),
			},
			"47.60970,-122.33310 ±8m",
		},
		{
			"no accuracy",
			queue.Location{
				Latitude:  testsupport.FloatPtr(1.5),
				Longitude: testsupport.FloatPtr(2.25),
			},
			"1.50000,2.25000",
		},
		{
			"partial fix",
			queue.Location{Latitude: testsupport.FloatPtr(1.5)},
			"1.50000,?",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatLocation(tc.location); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestRenderTablePlainFallback(t *testing.T) {
	// Test output is never a TTY, so the plain rendering path applies.
	rendered := renderTable(
		[]string{"ID", "File"},
		[][]string{{"1", "a.jpg"}, {"2", "b.jpg"}},
		[]columnAlignment{alignRight, alignLeft},
	)
	lines := strings.Split(rendered, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %q", rendered)
	}
	if lines[0] != "ID\tFile" || lines[2] != "2\tb.jpg" {
		t.Fatalf("unexpected plain rendering: %q", rendered)
	}
}
