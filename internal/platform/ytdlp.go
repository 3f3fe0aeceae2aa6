package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/ytget/yt-audio-bot/internal/model"
)

// Timeout constants
const (
	DefaultProbeTimeout   = 60 * time.Second
	DefaultSocketTimeout  = 30 * time.Second
	ProgressPollInterval  = 500 * time.Millisecond
	DefaultExtractorRetry = 3
)

// yt-dlp arguments not covered by the builder
const (
	SkipDownloadFlag     = "--skip-download"
	DumpSingleJSONFlag   = "--dump-single-json"
	ExtractAudioFlag     = "--extract-audio"
	AudioFormatFlag      = "--audio-format"
	AudioQualityFlag     = "--audio-quality"
	WriteThumbnailFlag   = "--write-thumbnail"
	SocketTimeoutFlag    = "--socket-timeout"
	ExtractorRetriesFlag = "--extractor-retries"
	BestAudioFormat      = "bestaudio/best"
	SearchPrefix         = "ytsearch"
	SearchPrintTemplate  = "%(id)s\t%(title)s\t%(uploader)s\t%(duration)s"
	OutputTemplateSuffix = ".%(ext)s"
)

// Default values
const (
	NotAvailable = "NA"
)

// FetchRequest describes one download-and-transcode invocation
type FetchRequest struct {
	Source       string
	Token        string // names every file the invocation writes
	Dir          string
	Profile      model.ClientProfile
	AudioFormat  string
	AudioQuality int // kbps
}

// OutputTemplate returns the yt-dlp output template for the request
func (r FetchRequest) OutputTemplate() string {
	return filepath.Join(r.Dir, r.Token+OutputTemplateSuffix)
}

// ProgressFunc receives byte counts from the transfer
type ProgressFunc func(downloaded, total int64)

// YTDLPService runs yt-dlp for probing, downloading and searching
type YTDLPService struct {
	timeout       time.Duration
	socketTimeout time.Duration
	cookiesFile   string
	proxy         string
}

// NewYTDLPService creates a new yt-dlp service
func NewYTDLPService(cookiesFile, proxy string) *YTDLPService {
	return &YTDLPService{
		timeout:       DefaultProbeTimeout,
		socketTimeout: DefaultSocketTimeout,
		cookiesFile:   cookiesFile,
		proxy:         proxy,
	}
}

// SetTimeout sets the timeout for probe and search operations
func (y *YTDLPService) SetTimeout(timeout time.Duration) {
	y.timeout = timeout
}

// SetSocketTimeout sets the per-request network timeout passed to yt-dlp
func (y *YTDLPService) SetSocketTimeout(timeout time.Duration) {
	y.socketTimeout = timeout
}

// Probe extracts metadata for source using profile, without downloading
func (y *YTDLPService) Probe(ctx context.Context, source string, profile model.ClientProfile) (*model.MediaMetadata, error) {
	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	args := append(y.commonArgs(profile), SkipDownloadFlag, DumpSingleJSONFlag, source)
	res, err := y.newCommand().
		NoPlaylist().
		Run(ctx, args...)
	if err != nil {
		return nil, model.ClassifyToolError(resultOutput(res), err)
	}

	meta, err := parseProbeJSON(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDownloadFailed, err)
	}
	return meta, nil
}

// Fetch downloads source and transcodes it to the requested audio format.
// Every file written is named after req.Token in req.Dir.
func (y *YTDLPService) Fetch(ctx context.Context, req FetchRequest, onProgress ProgressFunc) error {
	dl := y.newCommand().
		NoPlaylist().
		ForceOverwrites().
		Format(BestAudioFormat).
		Output(req.OutputTemplate())

	if onProgress != nil {
		dl.ProgressFunc(ProgressPollInterval, func(update ytdlp.ProgressUpdate) {
			onProgress(int64(update.DownloadedBytes), int64(update.TotalBytes))
		})
	}

	args := append(y.commonArgs(req.Profile), BuildAudioArgs(req.AudioFormat, req.AudioQuality)...)
	args = append(args, req.Source)

	res, err := dl.Run(ctx, args...)
	if err != nil {
		return model.ClassifyToolError(resultOutput(res), err)
	}
	return nil
}

// Search runs a catalog search and returns at most limit raw entries
func (y *YTDLPService) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	res, err := y.newCommand().
		FlatPlaylist().
		Print(SearchPrintTemplate).
		PlaylistItems(fmt.Sprintf("1-%d", limit)).
		Run(ctx, SearchQuery(query, limit))
	if err != nil {
		return nil, model.ClassifyToolError(resultOutput(res), err)
	}
	return parseSearchOutput(res.Stdout), nil
}

// BuildAudioArgs returns the extraction and transcode arguments
func BuildAudioArgs(format string, qualityKbps int) []string {
	return []string{
		ExtractAudioFlag,
		AudioFormatFlag, format,
		AudioQualityFlag, strconv.Itoa(qualityKbps) + "K",
		WriteThumbnailFlag,
	}
}

// SearchQuery builds the yt-dlp search pseudo-URL
func SearchQuery(query string, limit int) string {
	return fmt.Sprintf("%s%d:%s", SearchPrefix, limit, strings.TrimSpace(query))
}

func (y *YTDLPService) newCommand() *ytdlp.Command {
	cmd := ytdlp.New().
		IgnoreConfig().
		NoWarnings()
	if y.proxy != "" {
		cmd.Proxy(y.proxy)
	}
	return cmd
}

// commonArgs returns profile and network flags shared by probe and fetch
func (y *YTDLPService) commonArgs(profile model.ClientProfile) []string {
	args := profile.Args(y.cookiesFile)
	if y.socketTimeout > 0 {
		args = append(args, SocketTimeoutFlag, strconv.Itoa(int(y.socketTimeout.Seconds())))
	}
	return append(args, ExtractorRetriesFlag, strconv.Itoa(DefaultExtractorRetry))
}

// resultOutput returns the combined output of a possibly nil result
func resultOutput(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}
	return res.Stderr + "\n" + res.Stdout
}

type probeInfo struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Uploader   string   `json:"uploader"`
	Channel    string   `json:"channel"`
	Duration   *float64 `json:"duration"`
	WebpageURL string   `json:"webpage_url"`
}

// parseProbeJSON parses the single-JSON dump of one video
func parseProbeJSON(output string) (*model.MediaMetadata, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return nil, fmt.Errorf("empty metadata output")
	}

	// Keep the last JSON line, yt-dlp may print notices before it
	if i := strings.LastIndex(output, "\n{"); i != -1 {
		output = output[i+1:]
	}

	var info probeInfo
	if err := json.Unmarshal([]byte(output), &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("metadata has no id")
	}

	uploader := info.Uploader
	if uploader == "" {
		uploader = info.Channel
	}
	if uploader == "" {
		uploader = model.UnknownArtist
	}

	duration := 0
	if info.Duration != nil {
		duration = int(*info.Duration)
	}

	return &model.MediaMetadata{
		ID:         info.ID,
		Title:      strings.TrimSpace(info.Title),
		Uploader:   uploader,
		Duration:   duration,
		WebpageURL: info.WebpageURL,
	}, nil
}

// parseSearchOutput parses tab-separated search lines in catalog order
func parseSearchOutput(output string) []model.SearchResult {
	var results []model.SearchResult
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) < 2 {
			continue
		}
		id := strings.TrimSpace(fields[0])
		if id == "" || id == NotAvailable {
			continue
		}

		result := model.SearchResult{
			ID:    id,
			Title: strings.TrimSpace(fields[1]),
			URL:   VideoURL(id),
		}
		if len(fields) > 2 && fields[2] != NotAvailable {
			result.Uploader = strings.TrimSpace(fields[2])
		}
		if len(fields) > 3 {
			result.Duration = parseDurationSeconds(fields[3])
		}
		results = append(results, result)
	}
	return results
}

// parseDurationSeconds converts a yt-dlp duration field to whole seconds
func parseDurationSeconds(value string) int {
	value = strings.TrimSpace(value)
	if value == "" || value == NotAvailable {
		return 0
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return int(seconds)
}
