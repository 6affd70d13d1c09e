package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"hlsenc/internal/testsupport"
)

func TestCLIEncodeTranscodesAndSegments(t *testing.T) {
	env := setupCLITestEnv(t, "mpeg4", "mp3")
	input := testsupport.WriteInput(t, env.inputDir, "sample.avi")

	stdout, _, err := runCLI(t, []string{"encode", input, "--name", "clip1", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out encodeOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("decode output %q: %v", stdout, err)
	}
	if want := []string{"transcode-to-h264", "segment-to-hls"}; !slices.Equal(out.Route, want) {
		t.Fatalf("route = %v, want %v", out.Route, want)
	}
	manifest := filepath.Join(env.cfg.Paths.OutputDir, "clip1.m3u8")
	if out.Manifest != manifest {
		t.Fatalf("manifest = %q, want %q", out.Manifest, manifest)
	}
	if _, err := os.Stat(manifest); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	if len(out.Segments) != 2 {
		t.Fatalf("segments = %v, want 2 entries", out.Segments)
	}
	leftovers, err := filepath.Glob(filepath.Join(env.cfg.Paths.OutputDir, "clip1_*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("intermediates left behind: %v", leftovers)
	}

	store := testsupport.MustOpenHistory(t, env.cfg)
	run, err := store.Get(context.Background(), out.RunID)
	if err != nil {
		t.Fatalf("history get: %v", err)
	}
	if run == nil || run.Name != "clip1" || run.Manifest != manifest {
		t.Fatalf("unexpected history run %+v", run)
	}
}

func TestCLIEncodeDefaultsNameToInputBase(t *testing.T) {
	env := setupCLITestEnv(t, "h264", "aac")
	input := testsupport.WriteInput(t, env.inputDir, "My Clip.mp4")

	stdout, _, err := runCLI(t, []string{"encode", input}, env.configPath)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(stdout, "Route:     segment-to-hls") {
		t.Fatalf("expected segment-only route, got:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, "my_clip.m3u8")); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
}

func TestCLIEncodeMissingInput(t *testing.T) {
	env := setupCLITestEnv(t, "h264", "aac")

	_, _, err := runCLI(t, []string{"encode", filepath.Join(env.inputDir, "absent.avi"), "-n", "clip1"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if _, statErr := os.Stat(env.cfg.Paths.OutputDir); !os.IsNotExist(statErr) {
		t.Fatalf("output dir should not be created, stat err = %v", statErr)
	}
}

func TestCLIHistoryListsRuns(t *testing.T) {
	env := setupCLITestEnv(t, "h264", "aac")
	input := testsupport.WriteInput(t, env.inputDir, "sample.mp4")
	if _, _, err := runCLI(t, []string{"encode", input, "-n", "clip1"}, env.configPath); err != nil {
		t.Fatalf("encode: %v", err)
	}

	t.Setenv(testsupport.FailSegmentEnv, "1")
	if _, _, err := runCLI(t, []string{"encode", input, "-n", "clip2"}, env.configPath); err == nil {
		t.Fatal("expected segmentation failure")
	}

	stdout, _, err := runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var rows []historyRow
	if err := json.Unmarshal([]byte(stdout), &rows); err != nil {
		t.Fatalf("decode history %q: %v", stdout, err)
	}
	if len(rows) != 2 {
		t.Fatalf("history rows = %d, want 2", len(rows))
	}
	byName := map[string]historyRow{}
	for _, row := range rows {
		byName[row.Name] = row
	}
	if got := byName["clip1"]; got.Outcome != "succeeded" || got.Segments != 2 {
		t.Fatalf("clip1 row = %+v", got)
	}
	if got := byName["clip2"]; got.Outcome != "failed" || got.FailureKind != "stage_failed" {
		t.Fatalf("clip2 row = %+v", got)
	}

	stdout, _, err = runCLI(t, []string{"history", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	if !strings.Contains(stdout, "Removed 2 run(s)") {
		t.Fatalf("unexpected clear output: %q", stdout)
	}
}

func TestCLIHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t, "h264", "aac", testsupport.WithoutHistory())

	_, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "history is disabled") {
		t.Fatalf("expected disabled error, got %v", err)
	}
}

func TestCLIEncodeWritesMetricsTextfile(t *testing.T) {
	env := setupCLITestEnv(t, "h264", "aac", testsupport.WithMetricsTextfile())
	input := testsupport.WriteInput(t, env.inputDir, "sample.mp4")

	if _, _, err := runCLI(t, []string{"encode", input, "-n", "clip1"}, env.configPath); err != nil {
		t.Fatalf("encode: %v", err)
	}
	data, err := os.ReadFile(env.cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), `hlsenc_runs_total{outcome="succeeded",route="segment-to-hls"} 1`) {
		t.Fatalf("metrics missing run counter:\n%s", data)
	}
}

func TestCLIProbeJSON(t *testing.T) {
	env := setupCLITestEnv(t, "mpeg4", "aac")
	input := testsupport.WriteInput(t, env.inputDir, "sample.avi")

	stdout, _, err := runCLI(t, []string{"probe", input, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	var out probeOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("decode probe %q: %v", stdout, err)
	}
	if out.Video["codec_name"] != "mpeg4" || out.Audio["codec_name"] != "aac" {
		t.Fatalf("unexpected probe attributes: %+v", out)
	}
	if want := []string{"transcode-to-h264", "segment-to-hls"}; !slices.Equal(out.Route, want) {
		t.Fatalf("route = %v, want %v", out.Route, want)
	}
}

func TestCLIProbeTable(t *testing.T) {
	env := setupCLITestEnv(t, "h264", "aac")
	input := testsupport.WriteInput(t, env.inputDir, "sample.mp4")

	stdout, _, err := runCLI(t, []string{"probe", input}, env.configPath)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	for _, want := range []string{"codec_name", "h264", "Route: segment-to-hls"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("probe output missing %q:\n%s", want, stdout)
		}
	}
}

func TestCLIPresetsListsCatalog(t *testing.T) {
	env := setupCLITestEnv(t, "h264", "aac", testsupport.WithVideoEncoder("h264_nvenc"))

	stdout, _, err := runCLI(t, []string{"presets"}, env.configPath)
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	for _, want := range []string{"probe-video", "transcode-to-aac", "segment-to-hls", "h264_nvenc"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("presets output missing %q:\n%s", want, stdout)
		}
	}
}

func TestCLIBatchEncodesDirectory(t *testing.T) {
	env := setupCLITestEnv(t, "h264", "aac")
	testsupport.WriteInput(t, env.inputDir, "a.mp4")
	testsupport.WriteInput(t, env.inputDir, "b.mkv")
	testsupport.WriteInput(t, env.inputDir, "notes.txt")

	stdout, _, err := runCLI(t, []string{"batch", env.inputDir, "--skip-checks"}, env.configPath)
	if err != nil {
		t.Fatalf("batch: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "2 succeeded, 0 failed") {
		t.Fatalf("unexpected batch summary:\n%s", stdout)
	}
	for _, name := range []string{"a.m3u8", "b.m3u8"} {
		if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, name)); err != nil {
			t.Fatalf("%s missing: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, ".hlsenc.lock")); !os.IsNotExist(err) {
		t.Fatalf("lock file should be removed, stat err = %v", err)
	}
}

func TestCLIBatchDryRun(t *testing.T) {
	env := setupCLITestEnv(t, "h264", "aac")
	testsupport.WriteInput(t, env.inputDir, "a.mp4")

	stdout, _, err := runCLI(t, []string{"batch", env.inputDir, "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("batch dry run: %v", err)
	}
	if !strings.Contains(stdout, "a.mp4") {
		t.Fatalf("dry run missing input:\n%s", stdout)
	}
	if _, err := os.Stat(env.cfg.Paths.OutputDir); !os.IsNotExist(err) {
		t.Fatalf("dry run should not create output dir, stat err = %v", err)
	}
}

func TestCLICheckReportsTools(t *testing.T) {
	env := setupCLITestEnv(t, "h264", "aac")

	// Free-space results depend on the host, so only the report is checked.
	stdout, _, _ := runCLI(t, []string{"check"}, env.configPath)
	for _, want := range []string{"== Tools ==", "ffmpeg version stub", "== Preflight ==", "== Features =="} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("check output missing %q:\n%s", want, stdout)
		}
	}
}
