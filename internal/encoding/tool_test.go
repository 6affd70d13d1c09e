package encoding_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"hlsenc/internal/encoding"
	"hlsenc/internal/history"
	"hlsenc/internal/media/ffprobe"
	"hlsenc/internal/services"
	"hlsenc/internal/stageexec"
)

// fakeTool stands in for both ffprobe and ffmpeg. It answers probes with the
// configured codecs and writes the files a real ffmpeg would produce.
type fakeTool struct {
	video string
	audio string

	failTranscode  string
	failSegment    string
	probeStderr    string
	directoryTrans bool

	mu       sync.Mutex
	calls    []toolCall
	produced []string
}

type toolCall struct {
	binary string
	args   []string
}

func (f *fakeTool) Run(_ context.Context, binary string, args []string) (services.CommandOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, toolCall{binary: binary, args: slices.Clone(args)})

	if binary == "ffprobe" {
		return f.probe(args), nil
	}
	return f.ffmpeg(args)
}

func (f *fakeTool) probe(args []string) services.CommandOutput {
	if f.probeStderr != "" {
		return services.CommandOutput{Stderr: []byte(f.probeStderr), ExitCode: 1}
	}
	var b strings.Builder
	switch {
	case slices.Contains(args, "v:0") && f.video != "":
		fmt.Fprintf(&b, "width=1280\nheight=720\nduration=12.5\nbit_rate=2000000\ncodec_name=%s\n", f.video)
	case slices.Contains(args, "a:0") && f.audio != "":
		fmt.Fprintf(&b, "bit_rate=128000\ncodec_name=%s\n", f.audio)
	}
	return services.CommandOutput{Stdout: []byte(b.String())}
}

func (f *fakeTool) ffmpeg(args []string) (services.CommandOutput, error) {
	idx := slices.Index(args, "-i")
	if idx < 0 || idx+1 >= len(args) {
		return services.CommandOutput{Stderr: []byte("missing input"), ExitCode: 1}, nil
	}
	input := args[idx+1]
	if _, err := os.Stat(input); err != nil {
		return services.CommandOutput{Stderr: []byte(input + ": No such file or directory"), ExitCode: 1}, nil
	}
	output := args[len(args)-1]

	if list := slices.Index(args, "-segment_list"); list >= 0 {
		manifest := args[list+1]
		if f.failSegment != "" {
			return services.CommandOutput{Stderr: []byte(f.failSegment)}, nil
		}
		playlist := "#EXTM3U\n#EXT-X-TARGETDURATION:5\n"
		for i := 0; i < 2; i++ {
			segment := fmt.Sprintf(output, i)
			if err := f.write(segment, "segment from "+input); err != nil {
				return services.CommandOutput{}, err
			}
			playlist += "#EXTINF:5.0,\n" + filepath.Base(segment) + "\n"
		}
		return services.CommandOutput{}, f.write(manifest, playlist)
	}

	if _, err := os.Stat(output); err == nil {
		return services.CommandOutput{Stderr: []byte("File '" + output + "' already exists. Exiting."), ExitCode: 1}, nil
	}
	if f.directoryTrans {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return services.CommandOutput{}, err
		}
		f.produced = append(f.produced, output)
		return services.CommandOutput{}, f.write(filepath.Join(output, "pinned"), "x")
	}
	if err := f.write(output, "transcoded "+input); err != nil {
		return services.CommandOutput{}, err
	}
	if f.failTranscode != "" {
		return services.CommandOutput{Stderr: []byte(f.failTranscode)}, nil
	}
	return services.CommandOutput{}, nil
}

func (f *fakeTool) write(path, content string) error {
	f.produced = append(f.produced, path)
	return os.WriteFile(path, []byte(content), 0o644)
}

func (f *fakeTool) ffmpegCalls() []toolCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []toolCall
	for _, c := range f.calls {
		if c.binary == "ffmpeg" {
			out = append(out, c)
		}
	}
	return out
}

type recordingHistory struct {
	runs []history.Run
	err  error
}

func (h *recordingHistory) Record(_ context.Context, run history.Run) error {
	h.runs = append(h.runs, run)
	return h.err
}

type routerFixture struct {
	router  *encoding.Router
	tool    *fakeTool
	history *recordingHistory
}

func newFixture(t *testing.T, tool *fakeTool, tempDir string) routerFixture {
	t.Helper()
	hist := &recordingHistory{}
	router := encoding.New(encoding.Options{
		Prober:   ffprobe.New("ffprobe", ffprobe.WithRunner(tool)),
		Stages:   stageexec.New(stageexec.Options{Binary: "ffmpeg", Runner: tool, TempDir: tempDir}),
		TempDir:  tempDir,
		History:  hist,
		NewRunID: func() string { return "run-" + t.Name() },
	})
	return routerFixture{router: router, tool: tool, history: hist}
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be absent, stat err=%v", path, err)
	}
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}
