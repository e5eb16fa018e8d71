package engine

import (
	"sync"
	"time"

	"github.com/jinzhu/copier"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// TranscriptEntry is one line of the conversation log, ordered by arrival.
type TranscriptEntry struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// transcript is the append-only conversation log. The most recent assistant
// entry stays mutable while streamed text accumulates and freezes once the
// stream completes.
type transcript struct {
	clock Clock

	mu      sync.Mutex
	entries []TranscriptEntry
	// draft indexes the in-progress assistant entry, -1 when none.
	draft int
}

func newTranscript(clock Clock) *transcript {
	return &transcript{clock: clock, draft: -1}
}

// Append adds a finalized entry.
func (t *transcript) Append(role Role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, TranscriptEntry{
		Role:      role,
		Content:   content,
		Timestamp: t.clock.Now(),
	})
}

// AppendAssistantDelta accumulates streamed text into the in-progress
// assistant entry, creating it on the first fragment.
func (t *transcript) AppendAssistantDelta(delta string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.draft < 0 {
		t.entries = append(t.entries, TranscriptEntry{
			Role:      RoleAssistant,
			Timestamp: t.clock.Now(),
		})
		t.draft = len(t.entries) - 1
	}

	t.entries[t.draft].Content += delta
}

// FinalizeAssistant freezes the in-progress assistant entry and returns its
// content. A turn without response text yields an empty string and no entry.
func (t *transcript) FinalizeAssistant() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.draft < 0 {
		return ""
	}

	content := t.entries[t.draft].Content
	t.draft = -1
	return content
}

// DiscardAssistantDraft removes an unfinished assistant entry, used when a
// turn fails or is cancelled mid-stream.
func (t *transcript) DiscardAssistantDraft() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.draft < 0 {
		return
	}

	t.entries = append(t.entries[:t.draft], t.entries[t.draft+1:]...)
	t.draft = -1
}

// Clear drops the whole log.
func (t *transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = nil
	t.draft = -1
}

// Snapshot returns a point-in-time deep copy of the log.
func (t *transcript) Snapshot() []TranscriptEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := []TranscriptEntry{}
	_ = copier.Copy(&entries, t.entries)
	return entries
}
