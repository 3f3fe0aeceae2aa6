package platform

// Package platform contains OS and external tooling glue: the yt-dlp gateway
// used for probing, downloading and searching, job-token based file
// discovery and cleanup in the temp directory, and YouTube link recognition.
