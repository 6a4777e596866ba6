package utils

import (
	"testing"
	"time"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Göteborg":        "goteborg",
		"  MALMÖ  C ":     "malmo c",
		"Västerås":        "vasteras",
		"Åre":             "are",
		"":                "",
		"Stockholm\tCity": "stockholm city",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrimList(t *testing.T) {
	got := TrimList([]string{" Lund ", "", "lund", "Ystad", "Åhus", "Kivik"}, 3)
	if len(got) != 3 {
		t.Fatalf("len = %d (%v)", len(got), got)
	}
	if got[0] != "Lund" || got[1] != "Ystad" || got[2] != "Åhus" {
		t.Errorf("got %v", got)
	}
}

func TestTrimMaxRunes(t *testing.T) {
	if got := TrimMax("åäöåäö", 3); got != "åäö" {
		t.Errorf("got %q", got)
	}
}

func TestParseDateAndClock(t *testing.T) {
	d, err := ParseDate("2026-06-21", time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Weekday() != time.Sunday {
		t.Errorf("weekday = %s", d.Weekday())
	}
	if _, err := ParseDate("21/06/2026", time.UTC); err == nil {
		t.Error("expected error")
	}
	for _, ok := range []string{"00:00", "07:45", "23:59"} {
		if !ValidClock(ok) {
			t.Errorf("%s should be valid", ok)
		}
	}
	for _, bad := range []string{"24:00", "7:45", "12:60", ""} {
		if ValidClock(bad) {
			t.Errorf("%s should be invalid", bad)
		}
	}
}
