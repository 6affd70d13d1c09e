package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gofrs/flock"

	"hlsenc/internal/encoding"
	"hlsenc/internal/services"
	"hlsenc/internal/testsupport"
)

type recordingEncoder struct {
	calls []Job
	fail  map[string]error
}

func (r *recordingEncoder) AutoEncode(_ context.Context, input, name, _ string) (encoding.Result, error) {
	r.calls = append(r.calls, Job{Input: input, Name: name})
	if err := r.fail[name]; err != nil {
		return encoding.Result{}, err
	}
	return encoding.Result{RunID: name}, nil
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.MKV", "a.avi", "notes.txt", "nested/c.mp4", ".hidden/d.mp4"} {
		testsupport.WriteInput(t, dir, name)
	}

	flat, err := Discover(dir, nil, false)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	want := []string{filepath.Join(dir, "a.avi"), filepath.Join(dir, "b.MKV")}
	if !slices.Equal(flat, want) {
		t.Fatalf("expected %v, got %v", want, flat)
	}

	deep, err := Discover(dir, []string{"mp4"}, true)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if !slices.Equal(deep, []string{filepath.Join(dir, "nested", "c.mp4")}) {
		t.Fatalf("unexpected recursive result %v", deep)
	}
}

func TestPlanDerivesUniqueNames(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "intro.m3u8"), []byte("#EXTM3U\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	jobs := Plan([]string{"/in/Intro.avi", "/in/a/Clip.mkv", "/in/b/clip.mp4"}, out)
	got := make([]string, len(jobs))
	for i, job := range jobs {
		got[i] = job.Name
	}
	want := []string{"intro_2", "clip", "clip_2"}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	enc := &recordingEncoder{fail: map[string]error{"b": services.Wrap(services.ErrStageFailed, "segment-to-hls", "run ffmpeg", "boom", nil)}}
	jobs := []Job{{Input: "/in/a.avi", Name: "a"}, {Input: "/in/b.avi", Name: "b"}, {Input: "/in/c.avi", Name: "c"}}

	summary, err := Run(context.Background(), enc, jobs, out, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Succeeded != 2 || summary.Failed != 1 || len(summary.Items) != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !errors.Is(summary.Items[1].Err, services.ErrStageFailed) {
		t.Fatalf("expected failure recorded on item, got %v", summary.Items[1].Err)
	}
	if _, err := os.Stat(filepath.Join(out, LockFileName)); !os.IsNotExist(err) {
		t.Fatalf("expected lock file removed, stat err=%v", err)
	}
}

func TestRunRefusesLockedOutput(t *testing.T) {
	out := t.TempDir()
	held := flock.New(filepath.Join(out, LockFileName))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("could not take lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	enc := &recordingEncoder{}
	_, err = Run(context.Background(), enc, []Job{{Input: "/in/a.avi", Name: "a"}}, out, nil)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if len(enc.calls) != 0 {
		t.Fatal("expected no encodes while locked")
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enc := &recordingEncoder{}
	_, err := Run(ctx, enc, []Job{{Input: "/in/a.avi", Name: "a"}}, t.TempDir(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(enc.calls) != 0 {
		t.Fatal("expected no encodes after cancellation")
	}
}
