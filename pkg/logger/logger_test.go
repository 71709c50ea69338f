package logger

import (
	"context"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	ctx := context.Background()
	log := Get()

	log.Info(ctx, "match applied", String("match", "m1"), Int("players", 16))
	log.Warn(ctx, "pair update failed", Float64("weight", 0.5))
	log.Debug(ctx, "debug detail", Any("meta", map[string]int{"weeks": 3}))
	log.Named("sweep").Info(ctx, "named logger works")
}

func TestSetLevelString(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", ""} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("SetLevelString(%q) returned error: %v", level, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
