package tracker

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestScalarSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "metrics.bin")

	tracker := NewScalar(filename)
	tracker.Track("episode reward", 10, -200.5)
	tracker.Track("episode reward", 25, -150.0)
	tracker.Track("critic loss", 1, 3.25)

	if err := tracker.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := LoadData(filename)
	if err != nil {
		t.Fatalf("loadData: %v", err)
	}

	rewards := data["episode reward"]
	if len(rewards) != 2 {
		t.Fatalf("loadData: got %v reward points, want 2", len(rewards))
	}
	if rewards[0].Step != 10 || rewards[0].Value != -200.5 {
		t.Errorf("loadData: got point %+v, want {10 -200.5}", rewards[0])
	}
	if rewards[1].Step != 25 || rewards[1].Value != -150.0 {
		t.Errorf("loadData: got point %+v, want {25 -150}", rewards[1])
	}

	losses := data["critic loss"]
	if len(losses) != 1 || losses[0].Value != 3.25 {
		t.Errorf("loadData: got loss points %+v, want one point of 3.25",
			losses)
	}
}

func TestLoadDataMissingFile(t *testing.T) {
	_, err := LoadData(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	if err == nil {
		t.Error("loadData: expected error for missing file")
	}
}

func TestLogTracker(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	tracker := NewLog(logger)
	tracker.Track("actor loss", 3, 1.5)

	if err := tracker.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "actor loss") {
		t.Errorf("track: log output missing metric name: %v", out)
	}
	if !strings.Contains(out, `"step":3`) {
		t.Errorf("track: log output missing step: %v", out)
	}
}
