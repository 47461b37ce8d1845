package engineconfig

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWatchDeliversUpdateOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.json")

	if err := Default().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	updated := Config{
		SmallClassBase:       1024,
		MidClassBase:         2048,
		LargeClassMultiplier: 4,
		BackoffAttempts:      2,
	}

	if err := updated.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	select {
	case cfg := <-w.Updates():
		if cfg != updated {
			t.Errorf("watcher delivered %+v, want %+v", cfg, updated)
		}
	case err := <-w.Errors():
		t.Fatalf("watcher reported an error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a config update")
	}
}
