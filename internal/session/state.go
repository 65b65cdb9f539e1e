// Package session holds the per-session mutable state of the ingestion
// flow. The state is created when a user session starts and discarded
// with it; nothing here is persisted.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/google/uuid"
)

// State tracks the fingerprint of the most recently ingested media blob.
//
// This is deliberately a single-slot check, not a historical set: the UI
// layer may re-deliver the same captured input across refresh cycles, and
// one slot is enough to suppress that. Two genuinely identical
// submissions in a row are indistinguishable from a replay and will be
// suppressed too; that trade-off is accepted.
type State struct {
	ID string

	mu              sync.Mutex
	lastFingerprint string
}

// New creates a fresh session with an empty fingerprint slot.
func New() *State {
	return &State{ID: uuid.NewString()}
}

// Fingerprint returns the content hash of a media blob.
func Fingerprint(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

// ShouldProcess reports whether the blob differs from the last
// successfully ingested one.
func (s *State) ShouldProcess(blob []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFingerprint != Fingerprint(blob)
}

// MarkProcessed records the blob's fingerprint. Callers must only invoke
// this after the append succeeded, so a failed ingestion can be retried
// with the same input.
func (s *State) MarkProcessed(blob []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFingerprint = Fingerprint(blob)
}
