package upload_test

import (
	"testing"
	"time"

	"github.com/hishamahamad/stafford-gpt-ui/pkg/upload"
)

// fastConfig drives simulations in a few milliseconds. MinStep == MaxStep
// makes the per-tick increment deterministic.
func fastConfig() upload.Config {
	return upload.Config{
		UploadTick:      2 * time.Millisecond,
		ProcessingDelay: 5 * time.Millisecond,
		ProcessingTick:  2 * time.Millisecond,
		MinStep:         25,
		MaxStep:         25,
	}
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

func TestRegistry_AddFiles(t *testing.T) {
	r := upload.NewRegistry(upload.Config{UploadTick: time.Hour})

	ids := r.AddFiles([]upload.FileDescriptor{
		{Name: "handbook.pdf", Size: 2_000_000},
		{Name: "fees.csv", Size: 5_000},
		{Name: "faq.md", Size: 900},
	})
	if len(ids) != 3 {
		t.Fatalf("expected 3 IDs, got %d", len(ids))
	}
	if ids[0] == ids[1] || ids[1] == ids[2] {
		t.Error("record IDs must be unique")
	}

	records := r.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.ID != ids[i] {
			t.Errorf("submission order not preserved at %d", i)
		}
		if rec.Phase != upload.PhaseUploading || rec.Progress != 0 {
			t.Errorf("record %d should start uploading at 0, got %s/%d", i, rec.Phase, rec.Progress)
		}
	}
}

func TestRegistry_LifecycleToReady(t *testing.T) {
	r := upload.NewRegistry(fastConfig())

	ids := r.AddFiles([]upload.FileDescriptor{{Name: "handbook.pdf", Size: 2_000_000}})
	id := ids[0]

	// Sample the record on every change and check the phase/progress rules.
	sawProcessing := false
	lastPhase := upload.PhaseUploading
	lastProgress := 0

	waitFor(t, "record to become ready", func() bool {
		rec, ok := r.Get(id)
		if !ok {
			t.Fatal("record vanished mid-simulation")
		}
		if rec.Progress < 0 || rec.Progress > 100 {
			t.Fatalf("progress out of range: %d", rec.Progress)
		}
		if rec.Phase == lastPhase && rec.Progress < lastProgress {
			t.Fatalf("progress regressed within phase %s: %d -> %d", rec.Phase, lastProgress, rec.Progress)
		}
		if rec.Phase == upload.PhaseProcessing {
			sawProcessing = true
		}
		lastPhase, lastProgress = rec.Phase, rec.Progress
		return rec.Phase == upload.PhaseReady
	})

	if !sawProcessing {
		t.Error("record never observed in processing phase")
	}
	rec, _ := r.Get(id)
	if rec.Progress != 100 {
		t.Errorf("ready record should sit at 100, got %d", rec.Progress)
	}

	// Terminal: nothing moves it afterwards.
	time.Sleep(20 * time.Millisecond)
	rec2, ok := r.Get(id)
	if !ok || rec2.Phase != upload.PhaseReady || rec2.Progress != 100 {
		t.Errorf("ready record mutated after completion: %+v", rec2)
	}
}

func TestRegistry_HandoffResetsProgress(t *testing.T) {
	cfg := fastConfig()
	cfg.ProcessingDelay = time.Hour // park the record right after the transition
	r := upload.NewRegistry(cfg)

	ids := r.AddFiles([]upload.FileDescriptor{{Name: "parked.pdf", Size: 1}})

	waitFor(t, "transition to processing", func() bool {
		rec, ok := r.Get(ids[0])
		return ok && rec.Phase == upload.PhaseProcessing
	})

	// The single progress reset happens exactly at the transition.
	rec, _ := r.Get(ids[0])
	if rec.Progress != 0 {
		t.Errorf("progress at uploading->processing = %d, want 0", rec.Progress)
	}
	time.Sleep(20 * time.Millisecond)
	rec, _ = r.Get(ids[0])
	if rec.Progress != 0 {
		t.Errorf("progress moved during hand-off delay: %d", rec.Progress)
	}
}

func TestRegistry_RemoveHaltsDriver(t *testing.T) {
	r := upload.NewRegistry(fastConfig())

	ids := r.AddFiles([]upload.FileDescriptor{{Name: "doomed.txt", Size: 100}})
	r.Remove(ids[0])

	if _, ok := r.Get(ids[0]); ok {
		t.Fatal("record still present after removal")
	}

	// No tick may resurrect or recreate the record.
	time.Sleep(30 * time.Millisecond)
	if _, ok := r.Get(ids[0]); ok {
		t.Error("removed record resurrected by a dangling timer")
	}
	if len(r.Records()) != 0 {
		t.Errorf("registry not empty: %+v", r.Records())
	}
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	r := upload.NewRegistry(fastConfig())
	r.Remove("no-such-id")
	r.Remove("no-such-id")
}

func TestRegistry_RemoveLeavesOthersRunning(t *testing.T) {
	r := upload.NewRegistry(fastConfig())

	ids := r.AddFiles([]upload.FileDescriptor{
		{Name: "keep.pdf", Size: 1},
		{Name: "drop.pdf", Size: 1},
	})
	r.Remove(ids[1])

	waitFor(t, "surviving record to become ready", func() bool {
		rec, ok := r.Get(ids[0])
		return ok && rec.Phase == upload.PhaseReady
	})
}

func TestRegistry_FailIsTerminal(t *testing.T) {
	r := upload.NewRegistry(upload.Config{UploadTick: time.Hour})

	ids := r.AddFiles([]upload.FileDescriptor{{Name: "bad.bin", Size: 42}})
	r.Fail(ids[0], "ingestion rejected the file")

	rec, ok := r.Get(ids[0])
	if !ok || rec.Phase != upload.PhaseError {
		t.Fatalf("expected error phase, got %+v", rec)
	}
	if rec.Error != "ingestion rejected the file" {
		t.Errorf("error description = %q", rec.Error)
	}

	// A second failure or a late driver tick must not touch it.
	r.Fail(ids[0], "other reason")
	rec2, _ := r.Get(ids[0])
	if rec2.Error != "ingestion rejected the file" {
		t.Error("terminal error record was mutated")
	}
}

func TestRegistry_SubscribeSeesChanges(t *testing.T) {
	r := upload.NewRegistry(fastConfig())
	sub := r.Subscribe()

	ids := r.AddFiles([]upload.FileDescriptor{{Name: "watched.txt", Size: 10}})

	select {
	case got := <-sub:
		if got != ids[0] {
			t.Errorf("subscriber got %q, want %q", got, ids[0])
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never notified")
	}
}
