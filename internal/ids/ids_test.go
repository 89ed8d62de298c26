package ids

import (
	"sort"
	"testing"
	"time"
)

func TestNewIsUniqueAndSortable(t *testing.T) {
	const n = 1000
	seen := make(map[string]bool, n)
	generated := make([]string, 0, n)
	ts := time.Now()
	for i := 0; i < n; i++ {
		id := NewAt(ts)
		if len(id) != 26 {
			t.Fatalf("unexpected id length: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id: %s", id)
		}
		seen[id] = true
		generated = append(generated, id)
	}
	if !sort.StringsAreSorted(generated) {
		t.Fatal("ids generated at one timestamp must be monotonically increasing")
	}
}

func TestNewAtEncodesTimestamp(t *testing.T) {
	early := NewAt(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	late := NewAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if early >= late {
		t.Fatalf("expected %s < %s", early, late)
	}
}
