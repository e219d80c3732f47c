package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gwillem/neck/pkg/pose"
	"github.com/gwillem/neck/pkg/robot"
)

func TestRunCommand_Apply(t *testing.T) {
	tests := []struct {
		name         string
		cmd          RunCommand
		wantHz       int
		wantDeadband float64
		wantSource   string
	}{
		{"no overrides", RunCommand{Deadband: -1}, 100, 0.5, pose.KindWebSocket},
		{"hz", RunCommand{Hz: 30, Deadband: -1}, 30, 0.5, pose.KindWebSocket},
		{"zero deadband", RunCommand{Deadband: 0}, 100, 0, pose.KindWebSocket},
		{"source", RunCommand{Deadband: -1, Source: pose.KindSweep}, 100, 0.5, pose.KindSweep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := robot.Presets()[robot.PresetTwist2]
			tt.cmd.apply(&cfg)
			if cfg.Hz != tt.wantHz || cfg.Deadband != tt.wantDeadband || cfg.Source.Kind != tt.wantSource {
				t.Errorf("apply() = (%d, %v, %q), want (%d, %v, %q)",
					cfg.Hz, cfg.Deadband, cfg.Source.Kind, tt.wantHz, tt.wantDeadband, tt.wantSource)
			}
		})
	}
}

func TestIgnoreCanceled(t *testing.T) {
	if err := ignoreCanceled(fmt.Errorf("run: %w", context.Canceled)); err != nil {
		t.Errorf("ignoreCanceled(canceled) = %v, want nil", err)
	}
	boom := errors.New("boom")
	if err := ignoreCanceled(boom); err != boom {
		t.Errorf("ignoreCanceled(boom) = %v, want boom", err)
	}
}
