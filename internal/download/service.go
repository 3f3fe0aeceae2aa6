package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/ytget/yt-audio-bot/internal/logging"
	"github.com/ytget/yt-audio-bot/internal/model"
	"github.com/ytget/yt-audio-bot/internal/platform"
)

// Job settings
const (
	TaskIDPrefix        = "job-"
	DeliveryCoverSuffix = ".thumb.jpg"
	DefaultMaxParallel  = 4
	DefaultAudioFormat  = "mp3"
	DefaultAudioQuality = 192
	DefaultJobTimeout   = 10 * time.Minute
	DefaultRetention    = 10 * time.Minute
)

// Options configures the engine
type Options struct {
	TempDir          string
	AudioFormat      string
	AudioQuality     int // kbps
	MaxSizeBytes     int64
	MaxParallel      int
	Retry            RetryConfig
	JobTimeout       time.Duration
	FailureRetention time.Duration
	ProgressInterval time.Duration
	ProgressMinDelta int
	TitleFallback    bool // allow the degraded title lookup when no token output exists
}

// Handle follows one running job
type Handle struct {
	Token string

	updates    <-chan model.Progress
	downloaded <-chan struct{}
	done       chan struct{}
	artifact   *model.AudioArtifact
	err        error
}

// Progress returns the lossy stream of intermediate progress events
func (h *Handle) Progress() <-chan model.Progress {
	return h.updates
}

// Downloaded is closed once the transfer finished and transcoding begins
func (h *Handle) Downloaded() <-chan struct{} {
	return h.downloaded
}

// Done is closed when the job reached a terminal state
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result waits for the job and returns its outcome
func (h *Handle) Result() (*model.AudioArtifact, error) {
	<-h.done
	return h.artifact, h.err
}

// Service runs acquisition jobs
type Service struct {
	opts      Options
	extractor Extractor
	fetcher   Fetcher
	embedder  Embedder
	gate      SizeGate
	pool      *semaphore.Weighted
	log       logrus.FieldLogger

	jobs       map[string]*model.Job
	jobsMutex  sync.RWMutex
	newTokenFn func() string
	afterFunc  func(d time.Duration, f func())
}

// NewService creates a new download service
func NewService(opts Options, extractor Extractor, fetcher Fetcher, embedder Embedder, log logrus.FieldLogger) *Service {
	if opts.AudioFormat == "" {
		opts.AudioFormat = DefaultAudioFormat
	}
	if opts.AudioQuality <= 0 {
		opts.AudioQuality = DefaultAudioQuality
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = DefaultMaxParallel
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = DefaultJobTimeout
	}
	if opts.FailureRetention <= 0 {
		opts.FailureRetention = DefaultRetention
	}

	return &Service{
		opts:       opts,
		extractor:  extractor,
		fetcher:    fetcher,
		embedder:   embedder,
		gate:       SizeGate{Limit: opts.MaxSizeBytes, QualityKbps: opts.AudioQuality},
		pool:       semaphore.NewWeighted(int64(opts.MaxParallel)),
		log:        logging.OrDiscard(log),
		jobs:       make(map[string]*model.Job),
		newTokenFn: generateTaskID,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Start launches a job for source and returns immediately
func (s *Service) Start(ctx context.Context, source string) *Handle {
	job := model.NewJob(s.newTokenFn(), source)
	tr := newTracker(s.opts.ProgressInterval, s.opts.ProgressMinDelta)

	handle := &Handle{
		Token:      job.Token,
		updates:    tr.updates,
		downloaded: tr.downloaded,
		done:       make(chan struct{}),
	}

	s.jobsMutex.Lock()
	s.jobs[job.Token] = job
	s.jobsMutex.Unlock()

	go func() {
		defer close(handle.done)
		handle.artifact, handle.err = s.runJob(ctx, job, tr)
	}()

	return handle
}

// Run executes a job for source and waits for it. onProgress is called from
// the calling goroutine; events that would move the reported phase backwards
// are skipped, and nothing is reported after the job finished.
func (s *Service) Run(ctx context.Context, source string, onProgress func(model.Progress)) (*model.AudioArtifact, error) {
	handle := s.Start(ctx, source)
	emit := func(p model.Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	current := model.JobStatusPending
	downloaded := handle.Downloaded()
	// checkDownloaded reports Transcoding once the signal fired. It runs before
	// every other event so later phases never overtake it.
	checkDownloaded := func() {
		if downloaded == nil {
			return
		}
		select {
		case <-downloaded:
			downloaded = nil
			if current.Precedes(model.JobStatusTranscoding) {
				current = model.JobStatusTranscoding
				emit(model.Progress{Token: handle.Token, Status: model.JobStatusTranscoding, Percent: MaxDownloadPercent})
			}
		default:
		}
	}
	apply := func(p model.Progress) {
		checkDownloaded()
		if p.Status.Precedes(current) {
			return
		}
		current = p.Status
		emit(p)
	}

	for {
		select {
		case p := <-handle.Progress():
			apply(p)
		case <-downloaded:
			checkDownloaded()
		case <-handle.Done():
			checkDownloaded()
			for {
				select {
				case p := <-handle.Progress():
					apply(p)
				default:
					return handle.Result()
				}
			}
		}
	}
}

// Release removes every temp file of a delivered artifact
func (s *Service) Release(artifact *model.AudioArtifact) error {
	if artifact == nil {
		return nil
	}
	_, err := platform.RemoveJobArtifacts(s.opts.TempDir, artifact.JobToken)
	return err
}

// GetJob returns a snapshot of an in-flight job
func (s *Service) GetJob(token string) (model.Job, bool) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()
	job, exists := s.jobs[token]
	if !exists {
		return model.Job{}, false
	}
	return *job, true
}

// GetAllJobs returns snapshots of all in-flight jobs
func (s *Service) GetAllJobs() []model.Job {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	jobs := make([]model.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// ActiveCount returns how many jobs are doing work
func (s *Service) ActiveCount() int {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	count := 0
	for _, job := range s.jobs {
		if job.Status.IsActive() {
			count++
		}
	}
	return count
}

// runJob drives one job to a terminal state
func (s *Service) runJob(ctx context.Context, job *model.Job, tr *tracker) (*model.AudioArtifact, error) {
	log := s.log.WithFields(logrus.Fields{
		logging.FieldJob:    job.Token,
		logging.FieldSource: job.Source,
	})
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.opts.JobTimeout)
	defer cancel()

	artifact, err := RetryDo(ctx, s.opts.Retry, log, func(attempt int) (*model.AudioArtifact, error) {
		return s.attempt(ctx, job, tr, log.WithField(logging.FieldAttempt, attempt+1))
	})

	s.jobsMutex.Lock()
	if err != nil {
		job.LastError = err.Error()
		job.Advance(model.JobStatusFailed)
	} else {
		job.Advance(model.JobStatusDone)
	}
	delete(s.jobs, job.Token)
	s.jobsMutex.Unlock()

	if err != nil {
		log.WithField(logging.FieldDuration, time.Since(started)).Errorf("Job failed: %v", err)
		s.scheduleCleanup(job.Token)
		return nil, err
	}

	log.WithField(logging.FieldDuration, time.Since(started)).Infof("Job done: %s (%d bytes)", artifact.Title, artifact.Size)
	return artifact, nil
}

// attempt runs the pipeline phases strictly in sequence
func (s *Service) attempt(ctx context.Context, job *model.Job, tr *tracker, log logrus.FieldLogger) (*model.AudioArtifact, error) {
	s.setStatus(job, tr, model.JobStatusExtracting)

	res, err := s.extractor.Extract(ctx, job.Source)
	if err != nil {
		return nil, err
	}
	meta := res.Metadata
	title := meta.DisplayTitle()

	s.jobsMutex.Lock()
	job.Title = title
	job.Profile = res.Profile.Name
	s.jobsMutex.Unlock()

	if err := s.gate.CheckPre(meta.Duration); err != nil {
		return nil, err
	}

	if err := s.pool.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrNetwork, err)
	}
	defer s.pool.Release(1)

	s.setStatus(job, tr, model.JobStatusDownloading)

	req := platform.FetchRequest{
		Source:       job.Source,
		Token:        job.Token,
		Dir:          s.opts.TempDir,
		Profile:      res.Profile,
		AudioFormat:  s.opts.AudioFormat,
		AudioQuality: s.opts.AudioQuality,
	}
	err = s.fetcher.Fetch(ctx, req, func(downloaded, total int64) {
		s.updateJobProgress(job, tr, downloadPercent(downloaded, total))
		if total > 0 && downloaded >= total {
			s.markDownloaded(job, tr)
		}
	})
	if err != nil {
		return nil, err
	}
	s.markDownloaded(job, tr)

	path, err := s.locateOutput(job, meta, log)
	if err != nil {
		return nil, err
	}

	if _, err := s.gate.CheckPost(path); err != nil {
		return nil, err
	}

	thumbnail, kind := platform.ResolveThumbnail(s.opts.TempDir, job.Token, meta.ID, meta.Title)
	if kind == platform.MatchTitle {
		log.Warnf("Using title-matched thumbnail %s", thumbnail)
	}

	s.setStatus(job, tr, model.JobStatusEmbedding)
	path = s.embedder.Embed(ctx, path, thumbnail, title)

	size, err := platform.FileSize(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConversionFailed, err)
	}

	artifact := &model.AudioArtifact{
		JobToken:  job.Token,
		SourceID:  meta.ID,
		Path:      path,
		Title:     title,
		Performer: meta.Performer(),
		Duration:  meta.Duration,
		Size:      size,
	}
	if thumbnail != "" {
		cover := filepath.Join(s.opts.TempDir, job.Token+DeliveryCoverSuffix)
		if err := s.embedder.Normalize(thumbnail, cover); err == nil {
			artifact.ThumbnailPath = cover
		} else {
			log.Debugf("No delivery cover: %v", err)
		}
	}
	return artifact, nil
}

// locateOutput finds the transcoded file by job token, falling back to the
// degraded title lookup only when enabled
func (s *Service) locateOutput(job *model.Job, meta *model.MediaMetadata, log logrus.FieldLogger) (string, error) {
	path, err := platform.FindJobOutput(s.opts.TempDir, job.Token, s.opts.AudioFormat)
	if err == nil {
		return path, nil
	}
	if s.opts.TitleFallback && errors.Is(err, platform.ErrFileNotFound) {
		if fallback, ferr := platform.FindOutputByTitle(s.opts.TempDir, meta.Title, s.opts.AudioFormat); ferr == nil {
			log.Warnf("Output located by title match (degraded): %s", fallback)
			return fallback, nil
		}
	}
	return "", fmt.Errorf("%w: %v", model.ErrConversionFailed, err)
}

// setStatus advances the job phase and reports it
func (s *Service) setStatus(job *model.Job, tr *tracker, status model.JobStatus) {
	s.jobsMutex.Lock()
	if !job.Advance(status) {
		s.jobsMutex.Unlock()
		return
	}
	p := model.Progress{Token: job.Token, Status: status, Percent: job.Percent, Title: job.Title}
	s.jobsMutex.Unlock()

	tr.phase(p)
}

// updateJobProgress records a download percentage and reports it throttled
func (s *Service) updateJobProgress(job *model.Job, tr *tracker, percent int) {
	s.jobsMutex.Lock()
	if job.Status != model.JobStatusDownloading || !job.SetPercent(percent) {
		s.jobsMutex.Unlock()
		return
	}
	p := model.Progress{Token: job.Token, Status: model.JobStatusDownloading, Percent: job.Percent, Title: job.Title}
	s.jobsMutex.Unlock()

	tr.progress(p)
}

// markDownloaded fires the download-complete signal once and enters Transcoding
func (s *Service) markDownloaded(job *model.Job, tr *tracker) {
	tr.markDownloaded()
	s.jobsMutex.Lock()
	job.SetPercent(MaxDownloadPercent)
	job.Advance(model.JobStatusTranscoding)
	s.jobsMutex.Unlock()
}

// scheduleCleanup removes a failed job's files after the retention window
func (s *Service) scheduleCleanup(token string) {
	s.afterFunc(s.opts.FailureRetention, func() {
		removed, err := platform.RemoveJobArtifacts(s.opts.TempDir, token)
		if err != nil {
			s.log.WithField(logging.FieldJob, token).Warnf("Failed to clean up job files: %v", err)
			return
		}
		if removed > 0 {
			s.log.WithField(logging.FieldJob, token).Debugf("Removed %d files of failed job", removed)
		}
	})
}

// generateTaskID generates a unique job token using UUID v7 for time ordering
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}
