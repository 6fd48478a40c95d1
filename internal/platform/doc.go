package platform

// Package platform contains OS and filesystem glue: directory and filename
// helpers, detection of previously downloaded files, quality matching, and
// locating an ffmpeg installation.
