// Package anotes is the Composition Root for the anotes note keeper.
//
// It connects the note and document registries (Domain Layer) with the storage
// adapters (Persistence Layer) using the Hexagonal Architecture pattern.
//
// Notes live in a small flat key-value store as a single snapshot, together with
// the password of the private space. Trashed notes are purged once they have
// been in the trash longer than the retention window (30 days by default).
// Documents keep their metadata in the flat store and their payloads in a
// larger blob store; loading reconciles the two so no document surfaces
// without its payload.
//
// Mutations apply in memory and return a Commit. Calling it attempts
// durability; a failed Commit leaves the in-memory state intact and is
// reported through the registry's Err.
//
// Usage:
//
//	k, err := anotes.Open(ctx, anotes.DefaultPath(),
//		anotes.WithLogger(logger),
//	)
//
//	n, commit, err := k.Notes.Create(core.NoteDraft{Title: "groceries"})
//	err = commit(ctx)
package anotes
