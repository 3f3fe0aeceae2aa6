package download

import (
	"context"

	"github.com/ytget/yt-audio-bot/internal/extract"
	"github.com/ytget/yt-audio-bot/internal/model"
	"github.com/ytget/yt-audio-bot/internal/platform"
)

// Extractor resolves metadata and the client profile to download with
type Extractor interface {
	Extract(ctx context.Context, source string) (*extract.Result, error)
}

// Fetcher downloads and transcodes one source into the temp directory
type Fetcher interface {
	Fetch(ctx context.Context, req platform.FetchRequest, onProgress platform.ProgressFunc) error
}

// Embedder writes a cover into an audio file and prepares delivery covers
type Embedder interface {
	Embed(ctx context.Context, audioPath, thumbnailPath, title string) string
	Normalize(src, dst string) error
}

// Downloader defines the interface for the download service.
type Downloader interface {
	Start(ctx context.Context, source string) *Handle
	Run(ctx context.Context, source string, onProgress func(model.Progress)) (*model.AudioArtifact, error)
	Release(artifact *model.AudioArtifact) error
	GetJob(token string) (model.Job, bool)
	GetAllJobs() []model.Job
	ActiveCount() int
}
