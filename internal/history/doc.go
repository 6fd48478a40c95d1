// Package history implements the persistent download-history engine: the
// identifier normalizer that maps raw video IDs and URLs onto one canonical
// key, the sqlite-backed event store with coalescing upserts, the one-shot
// bulk importer that seeds a fresh store from a metadata JSONL log, and the
// decision driver that turns a fetched record into a proceed/skip/overwrite/
// resume choice.
//
// History is strictly advisory persisted state: every write path is designed
// to be swallowed by its caller, and no failure here may ever abort an
// in-progress download.
package history
