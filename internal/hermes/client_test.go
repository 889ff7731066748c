package hermes

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

func TestStreamConfigFromOptions(t *testing.T) {
	cfg := StreamOptions{Name: "EVENTS_TEST", MaxAge: 48 * time.Hour, Replicas: 3, Storage: "memory"}.streamConfig()

	if cfg.Name != "EVENTS_TEST" {
		t.Errorf("expected name EVENTS_TEST, got %s", cfg.Name)
	}
	if cfg.MaxAge != 48*time.Hour {
		t.Errorf("expected max age 48h, got %v", cfg.MaxAge)
	}
	if cfg.Replicas != 3 {
		t.Errorf("expected 3 replicas, got %d", cfg.Replicas)
	}
	if cfg.Storage != jetstream.MemoryStorage {
		t.Errorf("expected memory storage, got %v", cfg.Storage)
	}
	if len(cfg.Subjects) != len(StreamSubjects) {
		t.Errorf("expected subjects %v, got %v", StreamSubjects, cfg.Subjects)
	}
}

func TestStreamConfigDefaults(t *testing.T) {
	cfg := DefaultStreamOptions().streamConfig()
	if cfg.Name != "ASSAY_EVENTS" || cfg.MaxAge != 720*time.Hour {
		t.Errorf("unexpected defaults %s/%v", cfg.Name, cfg.MaxAge)
	}
	if cfg.Storage != jetstream.FileStorage {
		t.Errorf("expected file storage, got %v", cfg.Storage)
	}

	cfg = StreamOptions{Name: "X"}.streamConfig()
	if cfg.Replicas != 1 {
		t.Errorf("expected replicas floored to 1, got %d", cfg.Replicas)
	}
}
