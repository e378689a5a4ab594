package booking

import (
	"testing"
	"time"
)

func TestResolveDateISOPassthrough(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	got, err := ResolveDate("2025-12-10", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2025-12-10" {
		t.Fatalf("expected passthrough, got %s", got)
	}
}

func TestResolveDateLooseText(t *testing.T) {
	tests := []struct {
		name string
		text string
		now  time.Time
		want string
	}{
		{
			name: "upcoming this year",
			text: "Dec 10",
			now:  time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
			want: "2025-12-10",
		},
		{
			name: "already past rolls to next year",
			text: "Dec 10",
			now:  time.Date(2025, time.December, 11, 0, 0, 0, 0, time.UTC),
			want: "2026-12-10",
		},
		{
			name: "today stays current year",
			text: "Dec 10",
			now:  time.Date(2025, time.December, 10, 23, 0, 0, 0, time.UTC),
			want: "2025-12-10",
		},
		{
			name: "full month name",
			text: "January 3",
			now:  time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
			want: "2026-01-03",
		},
		{
			name: "explicit year honored",
			text: "Mar 5 2027",
			now:  time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
			want: "2027-03-05",
		},
		{
			name: "rfc3339 timestamp reduced to date",
			text: "2025-12-10T15:04:05Z",
			now:  time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
			want: "2025-12-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDate(tt.text, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ResolveDate(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestResolveDateNeverPast(t *testing.T) {
	now := time.Date(2025, time.August, 20, 9, 30, 0, 0, time.UTC)
	today := time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC)

	for _, text := range []string{"Jan 1", "Aug 19", "Aug 20", "Aug 21", "Dec 31"} {
		got, err := ResolveDate(text, now)
		if err != nil {
			t.Fatalf("ResolveDate(%q): %v", text, err)
		}
		resolved, err := time.Parse(ISODate, got)
		if err != nil {
			t.Fatalf("ResolveDate(%q) produced invalid date %s", text, got)
		}
		if resolved.Before(today) {
			t.Fatalf("ResolveDate(%q) = %s, in the past of %s", text, got, today.Format(ISODate))
		}
	}
}

func TestResolveDateUnparseable(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	for _, text := range []string{"", "next tuesday", "13/45/2025"} {
		if _, err := ResolveDate(text, now); err == nil {
			t.Fatalf("expected error for %q", text)
		}
	}
}

func TestNightsBetween(t *testing.T) {
	nights, err := NightsBetween("2025-12-10", "2025-12-13")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nights != 3 {
		t.Fatalf("expected 3 nights, got %d", nights)
	}

	if _, err := NightsBetween("not-a-date", "2025-12-13"); err == nil {
		t.Fatal("expected error for bad check-in")
	}
	if _, err := NightsBetween("2025-12-10", "nope"); err == nil {
		t.Fatal("expected error for bad check-out")
	}
}

func TestParsePaymentType(t *testing.T) {
	if ParsePaymentType("ach") != PaymentACH {
		t.Fatal("expected ach")
	}
	for _, s := range []string{"card", "", "wire"} {
		if ParsePaymentType(s) != PaymentCard {
			t.Fatalf("expected card default for %q", s)
		}
	}
}
