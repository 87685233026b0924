// Package archive preserves the audit trails of evicted sessions in a
// standalone SQLite database. Eviction is allowed to reclaim live ledger
// storage, but the trail is the system's accountability record, so retention
// moves it here before the session is dropped.
//
// The archive is append-only from the ledger's point of view: records are
// written once at eviction time and read back for after-the-fact review.
package archive
