package main

import (
	"testing"

	"github.com/dquill/sprited/internal/config"
	"github.com/dquill/sprited/internal/persist"
)

func TestResolveLogLevel(t *testing.T) {
	fileCfg := config.Default()
	fileCfg.Logging.Level = "debug"

	tests := []struct {
		name    string
		flagSet bool
		flag    string
		cfg     config.Config
		want    string
	}{
		{"flag wins over config", true, "error", fileCfg, "error"},
		{"config wins when flag unset", false, "", fileCfg, "debug"},
		{"defaults to info", false, "", config.Config{}, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveLogLevel(tt.flagSet, tt.flag, tt.cfg); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanvasDims(t *testing.T) {
	cfg := config.Default()

	w, h, err := canvasDims(persist.Envelope{Width: 16, Height: 24}, cfg)
	if err != nil || w != 16 || h != 24 {
		t.Errorf("got (%d, %d, %v), want the envelope's 16x24", w, h, err)
	}

	// Files saved without dimensions fall back to the configured canvas.
	w, h, err = canvasDims(persist.Envelope{}, cfg)
	if err != nil || w != cfg.Canvas.Width || h != cfg.Canvas.Height {
		t.Errorf("got (%d, %d, %v), want the configured %dx%d", w, h, err, cfg.Canvas.Width, cfg.Canvas.Height)
	}

	if _, _, err := canvasDims(persist.Envelope{}, config.Config{}); err == nil {
		t.Error("expected an error with no dimensions anywhere")
	}
}
