package download

// Package download implements the download pipeline built on top of yt-dlp
// (via github.com/lrstanley/go-ytdlp): command construction from download
// options, retries with backoff, metadata probing, and history event emission.
