package download

import (
	"fmt"
	"os"

	"github.com/ytget/yt-audio-bot/internal/model"
)

// BitsPerByte converts kbps to bytes per second together with 1000
const BitsPerByte = 8

// SizeGate rejects jobs whose output would exceed the delivery limit
type SizeGate struct {
	Limit       int64 // bytes, strictly below the delivery platform cap
	QualityKbps int
}

// Estimate returns the expected output size for a duration in seconds
func Estimate(durationSeconds, qualityKbps int) int64 {
	if durationSeconds <= 0 || qualityKbps <= 0 {
		return 0
	}
	return int64(durationSeconds) * int64(qualityKbps) * 1000 / BitsPerByte
}

// CheckPre fails with ErrTooLarge when the estimate exceeds limit
func CheckPre(estimated, limit int64) error {
	if limit > 0 && estimated > limit {
		return fmt.Errorf("%w: estimated %d bytes, limit %d", model.ErrTooLarge, estimated, limit)
	}
	return nil
}

// CheckPost fails with ErrTooLarge when the file at path exceeds limit. The
// oversized file is deleted before returning. It returns the file size.
func CheckPost(path string, limit int64) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrConversionFailed, err)
	}
	size := info.Size()
	if limit > 0 && size > limit {
		os.Remove(path)
		return size, fmt.Errorf("%w: %d bytes, limit %d", model.ErrTooLarge, size, limit)
	}
	return size, nil
}

// Estimate returns the expected output size for a duration in seconds
func (g SizeGate) Estimate(durationSeconds int) int64 {
	return Estimate(durationSeconds, g.QualityKbps)
}

// CheckPre rejects a job by its duration before any transfer starts
func (g SizeGate) CheckPre(durationSeconds int) error {
	return CheckPre(g.Estimate(durationSeconds), g.Limit)
}

// CheckPost checks the produced file, deleting it when oversized
func (g SizeGate) CheckPost(path string) (int64, error) {
	return CheckPost(path, g.Limit)
}
