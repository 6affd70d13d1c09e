package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// FailSegmentEnv makes the stub ffmpeg report a diagnostic during
// segmentation while still exiting zero.
const FailSegmentEnv = "HLSENC_STUB_FAIL_SEGMENT"

const ffprobeStub = `#!/bin/sh
mode=""
last=""
for arg in "$@"; do
  case "$arg" in
    v:0) mode=video ;;
    a:0) mode=audio ;;
  esac
  last="$arg"
done
if [ ! -f "$last" ]; then
  echo "$last: No such file or directory" >&2
  exit 1
fi
if [ "$mode" = video ] && [ -n "%[1]s" ]; then
  printf 'width=1280\nheight=720\nduration=10.000000\nbit_rate=1500000\ncodec_name=%%s\n' "%[1]s"
fi
if [ "$mode" = audio ] && [ -n "%[2]s" ]; then
  printf 'bit_rate=128000\ncodec_name=%%s\n' "%[2]s"
fi
exit 0
`

const ffmpegStub = `#!/bin/sh
input=""
list=""
prev=""
last=""
for arg in "$@"; do
  case "$arg" in
    -version) echo "ffmpeg version stub"; exit 0 ;;
    -encoders) printf ' V....D libx264              H.264\n A....D aac                  AAC\n'; exit 0 ;;
  esac
  case "$prev" in
    -i) input="$arg" ;;
    -segment_list) list="$arg" ;;
  esac
  prev="$arg"
  last="$arg"
done
if [ ! -f "$input" ]; then
  echo "$input: No such file or directory" >&2
  exit 1
fi
if [ -n "$list" ]; then
  if [ -n "$` + FailSegmentEnv + `" ]; then
    echo "Could not write header for output file #0" >&2
    exit 0
  fi
  prefix="${list%.m3u8}"
  printf 'segment' > "${prefix}000.ts"
  printf 'segment' > "${prefix}001.ts"
  base="${prefix##*/}"
  printf '#EXTM3U\n#EXT-X-TARGETDURATION:5\n#EXTINF:5.0,\n%s000.ts\n#EXTINF:5.0,\n%s001.ts\n' "$base" "$base" > "$list"
  exit 0
fi
if [ -e "$last" ]; then
  echo "File '$last' already exists. Exiting." >&2
  exit 1
fi
cat "$input" > "$last"
`

// WriteStubTools writes ffmpeg and ffprobe scripts into dir and returns
// their paths. The ffprobe stub reports videoCodec and audioCodec (an empty
// codec means no stream of that kind); the ffmpeg stub writes the files a
// real transcode or segmentation would.
func WriteStubTools(t testing.TB, dir, videoCodec, audioCodec string) (string, string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	ffmpeg := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(ffmpeg, []byte(ffmpegStub), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	ffprobe := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(ffprobe, []byte(fmt.Sprintf(ffprobeStub, videoCodec, audioCodec)), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	return ffmpeg, ffprobe
}
