package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixtureManifest(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	manifest := filepath.Join(root, "go.mod")
	if err := os.WriteFile(manifest, []byte("module example.com/fixture\n\ngo 1.24\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(root, "main.go")
	if err := os.WriteFile(src, []byte("package main\n\nfunc main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return manifest
}

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func TestAcquireReusesModelWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	mgr := New(Options{Manifest: fixtureManifest(t), Now: clock.Now})

	first, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	clock.now = clock.now.Add(4 * time.Minute)
	second, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}

	if first != second {
		t.Error("expected the same model within the TTL window")
	}
	stats := mgr.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Rebuilds != 1 {
		t.Errorf("stats = %+v, want 1 hit / 1 miss / 1 rebuild", stats)
	}
}

func TestAcquireRebuildsAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	mgr := New(Options{Manifest: fixtureManifest(t), Now: clock.Now})

	first, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	clock.now = clock.now.Add(DefaultTTL + time.Second)
	second, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}

	if first == second {
		t.Error("expected a fresh model after the TTL passed")
	}
	if got := mgr.Stats().Rebuilds; got != 2 {
		t.Errorf("rebuilds = %d, want 2", got)
	}
}

func TestAcquireCustomTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	mgr := New(Options{Manifest: fixtureManifest(t), TTL: time.Minute, Now: clock.Now})

	first, _ := mgr.Acquire()
	clock.now = clock.now.Add(61 * time.Second)
	second, _ := mgr.Acquire()

	if first == second {
		t.Error("expected a rebuild after the custom TTL")
	}
}

func TestFailedBuildInstallsNothing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "go.mod")
	mgr := New(Options{Manifest: missing})

	if _, err := mgr.Acquire(); err == nil {
		t.Fatal("expected an error for a missing manifest")
	}
	// A later call must retry the build, not serve a broken model.
	if _, err := mgr.Acquire(); err == nil {
		t.Fatal("expected the retry to fail too")
	}
	stats := mgr.Stats()
	if stats.Rebuilds != 0 {
		t.Errorf("rebuilds = %d, want 0 after failed builds", stats.Rebuilds)
	}
	if stats.Misses != 2 {
		t.Errorf("misses = %d, want 2", stats.Misses)
	}
}

func TestInvalidateForcesRebuild(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	mgr := New(Options{Manifest: fixtureManifest(t), Now: clock.Now})

	first, _ := mgr.Acquire()
	mgr.Invalidate()
	second, _ := mgr.Acquire()

	if first == second {
		t.Error("expected a fresh model after Invalidate")
	}
}
