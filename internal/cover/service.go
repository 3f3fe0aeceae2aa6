package cover

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"

	"github.com/ytget/yt-audio-bot/internal/logging"
)

// FFmpeg constants for cover embedding
const (
	// Tag settings, ID3v2.3 is read by far more players than v2.4
	ID3Version   = "3"
	CoverTitle   = "Album cover"
	CoverComment = "Cover (front)"

	// Image settings
	DefaultSize = 320
	JPEGQuality = 90

	// Output naming
	EmbeddedSuffix   = ".tagged"
	NormalizedSuffix = ".cover.jpg"

	// Executable and limits
	FFmpegCommand  = "ffmpeg"
	FFmpegLogLevel = "error"
	DefaultTimeout = 60 * time.Second
	MinOutputRatio = 0.9
)

// Service embeds cover images into audio files
type Service struct {
	runner  Runner
	size    int
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewService creates a cover service producing size x size covers
func NewService(size int, log logrus.FieldLogger) *Service {
	if size <= 0 {
		size = DefaultSize
	}
	return &Service{
		runner:  ExecRunner{},
		size:    size,
		timeout: DefaultTimeout,
		log:     logging.OrDiscard(log),
	}
}

// SetRunner replaces the tool runner
func (s *Service) SetRunner(runner Runner) {
	s.runner = runner
}

// SetTimeout sets the upper bound for one ffmpeg invocation
func (s *Service) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

// Embed writes thumbnailPath into audioPath as the front cover and returns
// the path of the tagged audio. On any failure the original audioPath is
// returned unchanged and no intermediate file is left behind.
func (s *Service) Embed(ctx context.Context, audioPath, thumbnailPath, title string) string {
	log := s.log.WithField(logging.FieldPath, audioPath)

	if thumbnailPath == "" {
		return audioPath
	}
	inputSize, err := fileSize(audioPath)
	if err != nil || inputSize == 0 {
		log.Warnf("Audio not usable for embedding: %v", err)
		return audioPath
	}

	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	coverPath := base + NormalizedSuffix
	outputPath := base + EmbeddedSuffix + filepath.Ext(audioPath)
	defer os.Remove(coverPath)

	if err := s.Normalize(thumbnailPath, coverPath); err != nil {
		log.Warnf("Failed to normalize thumbnail %s: %v", thumbnailPath, err)
		return audioPath
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := s.BuildFFmpegArgs(audioPath, coverPath, outputPath, title)
	if output, err := s.runner.Run(ctx, FFmpegCommand, args...); err != nil {
		os.Remove(outputPath)
		log.WithField("output", strings.TrimSpace(string(output))).Warnf("ffmpeg cover embedding failed: %v", err)
		return audioPath
	}

	outputSize, err := fileSize(outputPath)
	if err != nil || float64(outputSize) < float64(inputSize)*MinOutputRatio {
		os.Remove(outputPath)
		log.Warnf("Rejected tagged output (%d bytes, input %d bytes)", outputSize, inputSize)
		return audioPath
	}

	if err := os.Rename(outputPath, audioPath); err != nil {
		os.Remove(outputPath)
		log.Warnf("Failed to replace audio with tagged output: %v", err)
		return audioPath
	}

	log.Debug("Cover embedded")
	return audioPath
}

// BuildFFmpegArgs builds the ffmpeg command arguments
func (s *Service) BuildFFmpegArgs(audioPath, coverPath, outputPath, title string) []string {
	args := []string{
		"-y",
		"-loglevel", FFmpegLogLevel,
		"-i", audioPath,
		"-i", coverPath,
		"-map", "0:a",
		"-map", "1:0",
		"-c", "copy",
		"-id3v2_version", ID3Version,
		"-metadata:s:v", "title=" + CoverTitle,
		"-metadata:s:v", "comment=" + CoverComment,
		"-disposition:v", "attached_pic",
	}
	if title != "" {
		args = append(args, "-metadata", "title="+title)
	}
	return append(args, outputPath)
}

// Normalize converts src to a square JPEG of the configured size at dst.
// dst is only created when the conversion succeeds.
func (s *Service) Normalize(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open thumbnail: %w", err)
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("failed to decode thumbnail: %w", err)
	}

	square := cropSquare(img)
	resized := resize.Resize(uint(s.size), uint(s.size), square, resize.Lanczos3)

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create cover: %w", err)
	}
	if err := jpeg.Encode(out, resized, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode cover: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write cover: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move cover: %w", err)
	}
	return nil
}

// cropSquare returns the centered square region of img
func cropSquare(img image.Image) image.Image {
	bounds := img.Bounds()
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}
	x0 := bounds.Min.X + (bounds.Dx()-side)/2
	y0 := bounds.Min.Y + (bounds.Dy()-side)/2
	rect := image.Rect(x0, y0, x0+side, y0+side)

	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
