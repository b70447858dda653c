package catalog

import (
	"errors"
	"sync"
	"testing"

	"github.com/signalsfoundry/alert-correlator/model"
)

func testAlert(index int, ra, dec float64) *model.Alert {
	return &model.Alert{
		Index: index, RA: ra, Dec: dec,
		RAErrPlus: 0.5, RAErrMinus: 0.5, DecErrPlus: 0.5, DecErrMinus: 0.5,
	}
}

func TestAddAndGet(t *testing.T) {
	cat := New()

	if err := cat.Add(testAlert(1, 10, 5)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, ok := cat.Get(1)
	if !ok {
		t.Fatal("Get(1) returned no alert")
	}
	if got.RA != 10 || got.Dec != 5 {
		t.Errorf("Get(1) = %+v, want RA 10 Dec 5", got)
	}
	if _, ok := cat.Get(2); ok {
		t.Error("Get(2) found an alert that was never added")
	}
}

func TestAddDuplicateIndex(t *testing.T) {
	cat := New()
	if err := cat.Add(testAlert(1, 10, 5)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	err := cat.Add(testAlert(1, 20, -5))
	if !errors.Is(err, ErrDuplicateIndex) {
		t.Fatalf("Add duplicate error = %v, want ErrDuplicateIndex", err)
	}
	if cat.Len() != 1 {
		t.Errorf("Len = %d, want 1", cat.Len())
	}
}

func TestAddRejectsInvalidAlert(t *testing.T) {
	cat := New()

	bad := testAlert(1, 10, 95)
	if err := cat.Add(bad); !errors.Is(err, model.ErrDecOutOfRange) {
		t.Fatalf("Add error = %v, want ErrDecOutOfRange", err)
	}
	if err := cat.Add(nil); err == nil {
		t.Fatal("Add(nil) succeeded")
	}
	if cat.Len() != 0 {
		t.Errorf("Len = %d, want 0", cat.Len())
	}
}

func TestSnapshotSortedAndIsolated(t *testing.T) {
	cat := New()
	for _, idx := range []int{3, 1, 2} {
		if err := cat.Add(testAlert(idx, float64(idx*10), 0)); err != nil {
			t.Fatalf("Add(%d): %v", idx, err)
		}
	}

	snap := cat.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot len = %d, want 3", len(snap))
	}
	for i, want := range []int{1, 2, 3} {
		if snap[i].Index != want {
			t.Errorf("snap[%d].Index = %d, want %d", i, snap[i].Index, want)
		}
	}

	// Mutating the snapshot must not leak back into the catalog.
	snap[0].RA = 999
	got, _ := cat.Get(1)
	if got.RA == 999 {
		t.Error("snapshot mutation leaked into the catalog")
	}
}

func TestAddCopiesInput(t *testing.T) {
	cat := New()
	a := testAlert(1, 10, 5)
	if err := cat.Add(a); err != nil {
		t.Fatalf("Add: %v", err)
	}

	a.RA = 999
	got, _ := cat.Get(1)
	if got.RA == 999 {
		t.Error("caller mutation leaked into the catalog")
	}
}

func TestClear(t *testing.T) {
	cat := New()
	if err := cat.Add(testAlert(1, 10, 5)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	cat.Clear()
	if cat.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", cat.Len())
	}
}

func TestSubscribe(t *testing.T) {
	cat := New()

	var events []Event
	unsub := cat.Subscribe(func(e Event) { events = append(events, e) })

	if err := cat.Add(testAlert(1, 10, 5)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	cat.Clear()

	if len(events) != 2 {
		t.Fatalf("events = %v, want 2 entries", events)
	}
	if events[0].Type != EventAlertAdded || events[0].Alert.Index != 1 {
		t.Errorf("events[0] = %+v, want EventAlertAdded for index 1", events[0])
	}
	if events[1].Type != EventCatalogCleared {
		t.Errorf("events[1] = %+v, want EventCatalogCleared", events[1])
	}

	unsub()
	if err := cat.Add(testAlert(2, 20, 5)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("received events after unsubscribe: %v", events[2:])
	}
}

func TestConcurrentAdds(t *testing.T) {
	cat := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := cat.Add(testAlert(idx, float64(idx%360), 0)); err != nil {
				t.Errorf("Add(%d): %v", idx, err)
			}
		}(i)
	}
	wg.Wait()

	if cat.Len() != 50 {
		t.Fatalf("Len = %d, want 50", cat.Len())
	}
}
