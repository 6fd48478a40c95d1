package model

// Package model defines domain data structures used across the app: download
// events and history records, the status taxonomy, per-download options, and
// probed video metadata. Structures are designed for direct binding at the
// storage boundary and explicit state transitions.
