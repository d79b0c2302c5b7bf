package watcher

import (
	"testing"
	"time"
)

const testInterval = 50 * time.Millisecond

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []DebouncedEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for debouncer batch")
		return nil
	}
}

func Test_Debouncer_SingleEvent(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("main.go", OpCreate)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event, got %d", len(batch))
	}
	if batch[0].Path != "main.go" || batch[0].Op != OpCreate {
		t.Errorf("expected create of main.go, got %s of %s", batch[0].Op, batch[0].Path)
	}
}

func Test_Debouncer_EventCollapsing(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("main.go", OpCreate)
	d.Add("main.go", OpRemove)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event (collapsed), got %d", len(batch))
	}
	if batch[0].Op != OpRemove {
		t.Errorf("expected latest op remove, got %s", batch[0].Op)
	}
}

func Test_Debouncer_KeepsFirstSeenOrder(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("util.go", OpCreate)
	d.Add("README.md", OpRemove)
	d.Add("main.go", OpRename)
	d.Add("util.go", OpRemove)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	expected := []string{"util.go", "README.md", "main.go"}
	if len(batch) != len(expected) {
		t.Fatalf("expected %d events, got %d", len(expected), len(batch))
	}
	for i, path := range expected {
		if batch[i].Path != path {
			t.Errorf("event[%d]: expected path '%s', got '%s'", i, path, batch[i].Path)
		}
	}
}

func Test_Debouncer_TimerReset(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("main.go", OpCreate)

	// Wait less than the interval, then add another event; both land in one batch
	time.Sleep(testInterval / 2)
	d.Add("util.go", OpCreate)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 2 {
		t.Fatalf("expected 2 events in single batch, got %d", len(batch))
	}
}
