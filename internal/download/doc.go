package download

// Package download implements the download-and-transcode engine built on top
// of yt-dlp (via github.com/lrstanley/go-ytdlp). Each job is namespaced by a
// unique token in the temp directory, passes the size gate before and after
// transcoding, reports throttled progress over a channel and retries
// transient failures with exponential backoff.
