package cover

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

var _ Embedder = (*Service)(nil)

type fakeRunner struct {
	outputSize int
	err        error
	calls      [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	output := args[len(args)-1]
	if f.outputSize > 0 {
		if err := os.WriteFile(output, bytes.Repeat([]byte{0xAB}, f.outputSize), 0644); err != nil {
			return nil, err
		}
	}
	return []byte("ffmpeg says no"), f.err
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
}

func writeAudio(t *testing.T, dir string, size int) string {
	t.Helper()
	path := filepath.Join(dir, "job-1.mp3")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x01}, size), 0644); err != nil {
		t.Fatalf("Failed to write audio: %v", err)
	}
	return path
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

func TestNewService(t *testing.T) {
	service := NewService(0, nil)

	if service.size != DefaultSize {
		t.Errorf("Expected default size %d, got %d", DefaultSize, service.size)
	}
	if service.timeout != DefaultTimeout {
		t.Errorf("Expected default timeout %v, got %v", DefaultTimeout, service.timeout)
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	service := NewService(320, nil)
	args := service.BuildFFmpegArgs("/in.mp3", "/cover.jpg", "/out.mp3", "Song")

	expectedArgs := []string{
		"-y",
		"-loglevel", "error",
		"-i", "/in.mp3",
		"-i", "/cover.jpg",
		"-map", "0:a",
		"-map", "1:0",
		"-c", "copy",
		"-id3v2_version", "3",
		"-metadata:s:v", "title=Album cover",
		"-metadata:s:v", "comment=Cover (front)",
		"-disposition:v", "attached_pic",
		"-metadata", "title=Song",
		"/out.mp3",
	}

	if len(args) != len(expectedArgs) {
		t.Fatalf("Expected %d args, got %d: %v", len(expectedArgs), len(args), args)
	}

	for i, expected := range expectedArgs {
		if args[i] != expected {
			t.Errorf("Arg %d: expected %s, got %s", i, expected, args[i])
		}
	}
}

func TestBuildFFmpegArgs_NoTitle(t *testing.T) {
	service := NewService(320, nil)
	args := service.BuildFFmpegArgs("/in.mp3", "/cover.jpg", "/out.mp3", "")

	for _, arg := range args {
		if arg == "-metadata" {
			t.Fatal("Expected no title metadata when title is empty")
		}
	}
	if args[len(args)-1] != "/out.mp3" {
		t.Errorf("Expected output path last, got %s", args[len(args)-1])
	}
}

func TestNormalize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "thumb.png")
	dst := filepath.Join(dir, "cover.jpg")
	writePNG(t, src, 640, 360)

	service := NewService(320, nil)
	if err := service.Normalize(src, dst); err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatalf("Cover not written: %v", err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("Cover is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 320 {
		t.Errorf("Expected 320x320 cover, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestNormalize_CorruptInput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "thumb.webp")
	dst := filepath.Join(dir, "cover.jpg")
	if err := os.WriteFile(src, []byte("not an image"), 0644); err != nil {
		t.Fatalf("Failed to write thumbnail: %v", err)
	}

	service := NewService(320, nil)
	if err := service.Normalize(src, dst); err == nil {
		t.Fatal("Expected error for corrupt image")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("No cover must be written for corrupt input")
	}
}

func TestCropSquare(t *testing.T) {
	tests := []struct {
		w, h int
	}{
		{640, 360},
		{360, 640},
		{100, 100},
	}

	for _, test := range tests {
		img := image.NewRGBA(image.Rect(0, 0, test.w, test.h))
		square := cropSquare(img)
		if square.Bounds().Dx() != square.Bounds().Dy() {
			t.Errorf("cropSquare(%dx%d) is not square: %v", test.w, test.h, square.Bounds())
		}
	}
}

func TestEmbed_Success(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, 1000)
	thumb := filepath.Join(dir, "job-1.png")
	writePNG(t, thumb, 200, 100)

	runner := &fakeRunner{outputSize: 1100}
	service := NewService(64, nil)
	service.SetRunner(runner)

	result := service.Embed(context.Background(), audio, thumb, "Song")

	if result != audio {
		t.Errorf("Expected tagged audio at %s, got %s", audio, result)
	}
	if len(runner.calls) != 1 || runner.calls[0][0] != FFmpegCommand {
		t.Fatalf("Expected one ffmpeg call, got %v", runner.calls)
	}
	data, _ := os.ReadFile(audio)
	if len(data) != 1100 {
		t.Errorf("Expected original to be replaced by tagged output, size %d", len(data))
	}
	names := listDir(t, dir)
	expected := []string{"job-1.mp3", "job-1.png"}
	if len(names) != len(expected) || names[0] != expected[0] || names[1] != expected[1] {
		t.Errorf("Expected only %v to remain, got %v", expected, names)
	}
}

func TestEmbed_FailuresKeepOriginal(t *testing.T) {
	tests := []struct {
		name   string
		thumb  func(t *testing.T, dir string) string
		runner *fakeRunner
	}{
		{
			name:   "missing thumbnail path",
			thumb:  func(t *testing.T, dir string) string { return "" },
			runner: &fakeRunner{outputSize: 1100},
		},
		{
			name:   "thumbnail does not exist",
			thumb:  func(t *testing.T, dir string) string { return filepath.Join(dir, "nope.jpg") },
			runner: &fakeRunner{outputSize: 1100},
		},
		{
			name: "corrupt thumbnail",
			thumb: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "job-1.webp")
				if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
					t.Fatalf("Failed to write thumbnail: %v", err)
				}
				return path
			},
			runner: &fakeRunner{outputSize: 1100},
		},
		{
			name: "ffmpeg fails after partial write",
			thumb: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "job-1.png")
				writePNG(t, path, 50, 50)
				return path
			},
			runner: &fakeRunner{outputSize: 10, err: errors.New("exit status 1")},
		},
		{
			name: "implausibly small output",
			thumb: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "job-1.png")
				writePNG(t, path, 50, 50)
				return path
			},
			runner: &fakeRunner{outputSize: 10},
		},
		{
			name: "zero byte output",
			thumb: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "job-1.png")
				writePNG(t, path, 50, 50)
				return path
			},
			runner: &fakeRunner{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			audio := writeAudio(t, dir, 1000)
			thumb := test.thumb(t, dir)
			before := listDir(t, dir)

			service := NewService(64, nil)
			service.SetRunner(test.runner)
			result := service.Embed(context.Background(), audio, thumb, "Song")

			if result != audio {
				t.Errorf("Expected original path %s, got %s", audio, result)
			}
			data, err := os.ReadFile(audio)
			if err != nil || len(data) != 1000 || data[0] != 0x01 {
				t.Errorf("Original audio must be unchanged")
			}
			after := listDir(t, dir)
			if len(after) != len(before) {
				t.Errorf("Expected no leftover files, before %v after %v", before, after)
			}
		})
	}
}
