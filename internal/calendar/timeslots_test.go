package calendar

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/piquetdestream/piquet/internal/interval"
)

func slotAt(day, hour int) interval.Interval {
	start := monday.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
	return interval.Interval{Start: start, End: start.Add(time.Hour)}
}

func TestTimeSlots_Add(t *testing.T) {
	t.Run("generates an id", func(t *testing.T) {
		ts := NewTimeSlots(nil)
		if err := ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(0, 10)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		all := ts.All()
		if len(all) != 1 || all[0].ID == "" {
			t.Fatalf("got %+v", all)
		}
	})

	t.Run("redraws colliding ids", func(t *testing.T) {
		ids := []string{"a", "a", "a", "b"}
		gen := func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}
		ts := NewTimeSlots(gen)
		_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(0, 10)})
		_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(0, 12)})
		all := ts.All()
		if all[0].ID != "a" || all[1].ID != "b" {
			t.Errorf("ids = %q, %q; want a, b", all[0].ID, all[1].ID)
		}
	})

	t.Run("duplicate explicit id", func(t *testing.T) {
		ts := NewTimeSlots(nil)
		iv := slotAt(0, 10)
		iv.ID = "fixed"
		if err := ts.Dispatch(Action{Kind: AddTimeSlot, Payload: iv}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err := ts.Dispatch(Action{Kind: AddTimeSlot, Payload: iv})
		if !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("got %v, want %v", err, ErrDuplicateID)
		}
		if ts.Len() != 1 {
			t.Errorf("len = %d, want 1", ts.Len())
		}
	})
}

func TestTimeSlots_AddRemoveIdentity(t *testing.T) {
	ts := NewTimeSlots(nil)
	_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(1, 9)})
	before := ts.All()

	added := slotAt(2, 14)
	added.ID = "tmp"
	_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: added})
	_ = ts.Dispatch(Action{Kind: RemoveTimeSlot, Payload: interval.Interval{ID: "tmp"}})

	after := ts.All()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("got %+v, want %+v", after, before)
	}
}

func TestTimeSlots_RemoveAndUpdateMissing(t *testing.T) {
	ts := NewTimeSlots(nil)
	calls := 0
	ts.OnChange(func([]interval.Interval) { calls++ })

	_ = ts.Dispatch(Action{Kind: RemoveTimeSlot, Payload: interval.Interval{ID: "nope"}})
	_ = ts.Dispatch(Action{Kind: UpdateTimeSlot, Payload: slotAt(0, 1)})
	if calls != 0 {
		t.Errorf("no-op dispatches notified %d times", calls)
	}
}

func TestTimeSlots_UpdateMergesFields(t *testing.T) {
	ts := NewTimeSlots(nil)
	iv := slotAt(0, 10)
	iv.ID = "s"
	_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: iv})

	newEnd := iv.End.Add(30 * time.Minute)
	_ = ts.Dispatch(Action{Kind: UpdateTimeSlot, Payload: interval.Interval{ID: "s", End: newEnd}})

	got, ok := ts.Get("s")
	if !ok {
		t.Fatal("slot missing")
	}
	if !got.Start.Equal(iv.Start) || !got.End.Equal(newEnd) {
		t.Errorf("got [%v, %v)", got.Start, got.End)
	}
}

func TestTimeSlots_OnChange(t *testing.T) {
	ts := NewTimeSlots(nil)
	var seen [][]interval.Interval
	ts.OnChange(func(s []interval.Interval) { seen = append(seen, s) })

	_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(0, 10)})
	_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(0, 12)})
	id := ts.All()[0].ID
	_ = ts.Dispatch(Action{Kind: RemoveTimeSlot, Payload: interval.Interval{ID: id}})

	if len(seen) != 3 {
		t.Fatalf("notified %d times, want 3", len(seen))
	}
	if len(seen[0]) != 1 || len(seen[1]) != 2 || len(seen[2]) != 1 {
		t.Errorf("snapshot sizes = %d, %d, %d", len(seen[0]), len(seen[1]), len(seen[2]))
	}

	// Snapshots are copies.
	seen[1][0].ID = "mutated"
	if ts.All()[0].ID == "mutated" {
		t.Error("snapshot aliases internal state")
	}
}

func TestTimeSlots_Visible(t *testing.T) {
	ts := NewTimeSlots(nil)
	_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(0, 10)})
	_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(6, 23)})
	_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(7, 10)})
	_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(-1, 10)})

	if got := len(ts.Visible(WeekDays(monday))); got != 2 {
		t.Errorf("visible = %d, want 2", got)
	}
	if got := len(ts.Visible(WeekDays(monday.AddDate(0, 0, 7)))); got != 1 {
		t.Errorf("visible next week = %d, want 1", got)
	}
	if ts.Len() != 4 {
		t.Errorf("len = %d, want 4", ts.Len())
	}
}

func TestTimeSlots_ConcurrentAddsHaveUniqueIDs(t *testing.T) {
	var mu sync.Mutex
	n := 0
	// Deliberately collide: every id is drawn from a small pool.
	gen := func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n%500)
	}
	ts := NewTimeSlots(gen)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(i%7, i%24)})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, s := range ts.All() {
		if seen[s.ID] {
			t.Fatalf("duplicate id %s", s.ID)
		}
		seen[s.ID] = true
	}
	if len(seen) != 100 {
		t.Errorf("got %d slots, want 100", len(seen))
	}
}

func TestTimeSlots_Clear(t *testing.T) {
	ts := NewTimeSlots(nil)
	_ = ts.Dispatch(Action{Kind: AddTimeSlot, Payload: slotAt(0, 10)})
	notified := false
	ts.OnChange(func(s []interval.Interval) { notified = len(s) == 0 })
	ts.Clear()
	if ts.Len() != 0 || !notified {
		t.Errorf("len = %d, notified = %v", ts.Len(), notified)
	}
}
