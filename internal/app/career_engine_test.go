package app

import (
	"reflect"
	"testing"
)

func TestRankTagsOrdersByFrequency(t *testing.T) {
	got := rankTags([]string{"engineer", "architect", "engineer", "manager", "engineer", "architect"})
	want := []string{"engineer", "architect", "manager"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRankTagsTieBreaksByFirstSeen(t *testing.T) {
	// Equal counts must rank in the order the tags first appeared, so the
	// same answers always produce the same result.
	got := rankTags([]string{"manager", "architect", "manager", "architect"})
	want := []string{"manager", "architect"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = rankTags([]string{"architect", "manager", "architect", "manager"})
	want = []string{"architect", "manager"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRankTagsEmpty(t *testing.T) {
	if got := rankTags(nil); len(got) != 0 {
		t.Fatalf("expected empty ranking, got %v", got)
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(0, 4, 4); got != "░░░░" {
		t.Fatalf("unexpected bar: %q", got)
	}
	if got := progressBar(2, 4, 4); got != "██░░" {
		t.Fatalf("unexpected bar: %q", got)
	}
	if got := progressBar(4, 4, 4); got != "████" {
		t.Fatalf("unexpected bar: %q", got)
	}
	// Zero total renders an empty bar instead of dividing by zero.
	if got := progressBar(0, 0, 4); got != "░░░░" {
		t.Fatalf("unexpected bar: %q", got)
	}
}

func TestSessionRememberEvictsOldest(t *testing.T) {
	s := NewSession()
	for i := 0; i < recentEventCap+4; i++ {
		s.Remember(string(rune('a' + i)))
	}
	if len(s.RecentEvents) != recentEventCap {
		t.Fatalf("expected cap %d, got %d", recentEventCap, len(s.RecentEvents))
	}
	if s.Seen("a") {
		t.Fatal("expected oldest event evicted")
	}
	if !s.Seen(string(rune('a' + recentEventCap + 3))) {
		t.Fatal("expected newest event remembered")
	}
}
