package model

// JobStatus represents the phase an acquisition job is in
type JobStatus string

const (
	// JobStatusPending means the job was created but no work started yet
	JobStatusPending JobStatus = "Pending"

	// JobStatusExtracting means remote metadata is being extracted
	JobStatusExtracting JobStatus = "Extracting"

	// JobStatusDownloading means the remote transfer is in progress
	JobStatusDownloading JobStatus = "Downloading"

	// JobStatusTranscoding means the transfer finished and the transcoder is running
	JobStatusTranscoding JobStatus = "Transcoding"

	// JobStatusEmbedding means the cover is being written into the audio file
	JobStatusEmbedding JobStatus = "Embedding"

	// JobStatusDone means the artifact was produced
	JobStatusDone JobStatus = "Done"

	// JobStatusFailed means the job ended with an error
	JobStatusFailed JobStatus = "Failed"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsActive returns true if the job is doing work
func (js JobStatus) IsActive() bool {
	switch js {
	case JobStatusExtracting, JobStatusDownloading, JobStatusTranscoding, JobStatusEmbedding:
		return true
	}
	return false
}

// IsFinished returns true if the job reached a terminal state
func (js JobStatus) IsFinished() bool {
	return js == JobStatusDone || js == JobStatusFailed
}

// order gives the position of a status in the pipeline sequence
func (js JobStatus) order() int {
	switch js {
	case JobStatusPending:
		return 0
	case JobStatusExtracting:
		return 1
	case JobStatusDownloading:
		return 2
	case JobStatusTranscoding:
		return 3
	case JobStatusEmbedding:
		return 4
	case JobStatusDone, JobStatusFailed:
		return 5
	}
	return -1
}

// CanAdvanceTo reports whether moving from js to next keeps phases in sequence.
// Failed is reachable from every non-terminal phase.
func (js JobStatus) CanAdvanceTo(next JobStatus) bool {
	if js.IsFinished() {
		return false
	}
	if next == JobStatusFailed {
		return true
	}
	return next.order() > js.order()
}

// Precedes reports whether js comes before other in the pipeline sequence
func (js JobStatus) Precedes(other JobStatus) bool {
	return js.order() < other.order()
}
