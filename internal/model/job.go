package model

import (
	"time"
)

// Job represents a single acquisition request
type Job struct {
	Token      string    // unique token namespacing every temp artifact of the job
	Source     string    // URL or catalog id the job was created for
	Status     JobStatus // current pipeline phase
	Percent    int       // 0 to 100, never decreases
	Profile    string    // client profile that passed extraction
	Title      string    // display title once metadata is known
	LastError  string    // last error message if any
	StartedAt  time.Time // when the job was created
	FinishedAt time.Time // when the job reached a terminal state
}

// NewJob creates a pending job for source
func NewJob(token, source string) *Job {
	return &Job{
		Token:     token,
		Source:    source,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
	}
}

// Advance moves the job to status if the transition keeps phases in order.
// It returns false and leaves the job unchanged otherwise.
func (j *Job) Advance(status JobStatus) bool {
	if !j.Status.CanAdvanceTo(status) {
		return false
	}
	j.Status = status
	if status.IsFinished() {
		j.FinishedAt = time.Now()
		if status == JobStatusDone {
			j.Percent = 100
		}
	}
	return true
}

// SetPercent records download progress. Values are clamped to 0..100 and
// a value lower than the current one is ignored. It reports whether the
// stored value changed.
func (j *Job) SetPercent(percent int) bool {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent <= j.Percent {
		return false
	}
	j.Percent = percent
	return true
}

// GetDisplayTitle returns the title, or the source if no title is known yet
func (j *Job) GetDisplayTitle() string {
	if j.Title != "" {
		return j.Title
	}
	return j.Source
}

// Progress is a single progress event emitted by a running job
type Progress struct {
	Token   string
	Status  JobStatus
	Percent int
	Title   string
}

// MediaMetadata is what extraction returns for a remote item. It is not
// modified after extraction.
type MediaMetadata struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Uploader   string `json:"uploader"`
	Duration   int    `json:"duration"` // seconds
	WebpageURL string `json:"webpage_url,omitempty"`
}

// DisplayTitle returns the title with a leading uploader prefix removed
func (m MediaMetadata) DisplayTitle() string {
	return CleanTitle(m.Title, m.Uploader)
}

// Performer returns the uploader to present as performer, or "" if unknown
func (m MediaMetadata) Performer() string {
	return Performer(m.Uploader)
}

// SearchResult is one entry returned by a catalog search
type SearchResult struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Uploader string `json:"uploader"`
	Duration int    `json:"duration"`
}

// GetDurationString returns the duration as m:ss or h:mm:ss
func (r SearchResult) GetDurationString() string {
	return FormatDuration(r.Duration)
}

// AudioArtifact is the terminal output of a successful job
type AudioArtifact struct {
	JobToken      string
	SourceID      string
	Path          string
	Title         string
	Performer     string
	Duration      int
	Size          int64
	ThumbnailPath string // empty when no cover was found
}

// HasThumbnail reports whether a cover image accompanies the audio
func (a *AudioArtifact) HasThumbnail() bool {
	return a.ThumbnailPath != ""
}
