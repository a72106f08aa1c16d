package batch

import (
	"path/filepath"
	"testing"
)

func TestCheckpointStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "checkpoint.json")
	store := NewCheckpointStore(path, true)

	if _, ok, err := store.Load("in.jsonl"); err != nil || ok {
		t.Fatalf("expected no checkpoint, ok=%v err=%v", ok, err)
	}
	if err := store.Save("in.jsonl", 42); err != nil {
		t.Fatalf("save: %v", err)
	}

	cp, ok, err := store.Load("in.jsonl")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if cp.LastProcessedLine != 42 {
		t.Fatalf("unexpected line: %d", cp.LastProcessedLine)
	}

	if _, ok, _ := store.Load("other.jsonl"); ok {
		t.Fatalf("checkpoint for another input must be ignored")
	}
}

func TestCheckpointStoreDisabled(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "checkpoint.json"), false)
	if err := store.Save("in.jsonl", 1); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, err := store.Load("in.jsonl"); err != nil || ok {
		t.Fatalf("disabled store must not load, ok=%v err=%v", ok, err)
	}
}
