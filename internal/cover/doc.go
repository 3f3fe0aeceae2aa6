package cover

// Package cover normalizes downloaded thumbnails and writes them into audio
// files as front-cover ID3 tags using ffmpeg. Embedding is best effort: any
// failure leaves the original audio untouched.
