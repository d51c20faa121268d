package logger

import (
	"os"
	"path/filepath"
	"strings"
	"studynotes_backend/internal/config"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelOf(t *testing.T) {
	cases := []struct {
		mode, level string
		want        zapcore.Level
	}{
		{"debug", "", zap.DebugLevel},
		{"release", "", zap.InfoLevel},
		{"debug", "warn", zap.WarnLevel},
		{"release", "bogus", zap.InfoLevel},
	}
	for _, c := range cases {
		cfg := &config.Config{}
		cfg.Server.Mode = c.mode
		cfg.Log.Level = c.level
		if got := levelOf(cfg); got != c.want {
			t.Errorf("mode=%s level=%s: got %v, want %v", c.mode, c.level, got, c.want)
		}
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	cfg := &config.Config{}
	cfg.Server.Mode = "release"
	cfg.Log.File = path
	cfg.Log.MaxSizeMB = 1

	InitLogger(cfg)
	defer func() { Log = zap.NewNop() }()

	Log.Debug("hidden")
	Log.Info("visible")
	Log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), `"msg":"visible"`) {
		t.Fatalf("log file = %s", data)
	}

	cfg.Log.Level = "debug"
	Reload(cfg)
	if !Log.Core().Enabled(zap.DebugLevel) {
		t.Fatal("reload did not lower the level")
	}
}
