// Package spool implements the durable bundle store the delivery engine
// drains: one JSON envelope file per bundle in a single spool directory.
//
// Envelope filenames are <created-unixnano>-<uuid>.json, so a plain lexical
// sort of the directory yields creation order. Every write (Put, UpdateMeta)
// goes through temp-file-then-rename, giving crash consistency: after a
// process kill mid-write, listing reflects the last committed state of each
// bundle, never a torn one. Stale .tmp files are swept on Open.
//
// Put is the collector-facing handoff; ListPending, Payload, Delete and
// UpdateMeta are the contract the engine consumes. Watch uses fsnotify to
// fire a callback when a new envelope lands, so the daemon can trigger a
// flush as soon as the collector hands off a bundle.
package spool
