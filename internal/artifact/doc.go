// Package artifact implements the bounded on-disk store for rendered images.
//
// Every artifact is written under a generated name of the form
//
//	{taskID}_{slotIndex}_{YYYYMMDD_HHMMSS_micros}.{ext}
//
// The timestamp suffix gives a total creation-time order across the store,
// so eviction needs no separate index: Cleanup sorts by it and deletes the
// oldest files until the configured maximum is respected. Concurrent writers
// never collide because task id and slot are part of every name, and
// Cleanup tolerates files disappearing while it runs.
package artifact
