// Package timeline keeps the append-only conversation log. Turns are only ever
// added, never edited or removed, and every turn gets a unique ID even when
// appends land on the same wall-clock millisecond.
package timeline

import (
	"fmt"
	"sync"
	"time"
)

// Author identifies who produced a turn
type Author string

const (
	AuthorUser  Author = "user"
	AuthorAgent Author = "agent"
)

// Kind identifies the payload a turn carries
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
)

// Turn is one entry in the conversation. Audio turns may carry display text
// alongside the clip; agent reply clips usually leave it empty.
type Turn struct {
	ID        string        `json:"id"`
	Author    Author        `json:"author"`
	Kind      Kind          `json:"kind"`
	Text      string        `json:"text"`
	Audio     []byte        `json:"-"`
	Duration  time.Duration `json:"duration,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Timeline is the append-only conversation log. All mutation goes through
// AppendText and AppendAudio, which construct the Turn internally so IDs and
// timestamps cannot be forged or duplicated by callers.
type Timeline struct {
	turns    []Turn
	seq      uint64
	lastTime time.Time

	now func() time.Time

	mu sync.RWMutex
}

// TimelineStats represents timeline statistics for monitoring
type TimelineStats struct {
	Turns      int `json:"turns"`
	TextTurns  int `json:"text_turns"`
	AudioTurns int `json:"audio_turns"`
}

// New creates an empty timeline
func New() *Timeline {
	return &Timeline{now: time.Now}
}

// AppendText appends a text turn and returns it
func (t *Timeline) AppendText(author Author, text string) Turn {
	t.mu.Lock()
	defer t.mu.Unlock()

	turn := t.newTurn(author, KindText)
	turn.Text = text
	t.turns = append(t.turns, turn)
	return turn
}

// AppendAudio appends an audio turn with its display text and returns it. The
// clip bytes are copied so callers cannot mutate logged turns afterwards.
func (t *Timeline) AppendAudio(author Author, text string, wav []byte, duration time.Duration) Turn {
	t.mu.Lock()
	defer t.mu.Unlock()

	turn := t.newTurn(author, KindAudio)
	turn.Text = text
	turn.Duration = duration
	turn.Audio = make([]byte, len(wav))
	copy(turn.Audio, wav)
	t.turns = append(t.turns, turn)
	return turn
}

// newTurn builds a turn with a collision-free ID and a non-decreasing
// timestamp. Must be called with the lock held.
func (t *Timeline) newTurn(author Author, kind Kind) Turn {
	created := t.now()
	// Clock can step backwards (NTP); timestamps must stay ordered with the log.
	if created.Before(t.lastTime) {
		created = t.lastTime
	}
	t.lastTime = created

	t.seq++
	id := fmt.Sprintf("%d-%d", created.UnixMilli(), t.seq)

	return Turn{
		ID:        id,
		Author:    author,
		Kind:      kind,
		CreatedAt: created,
	}
}

// Snapshot returns a copy of all turns in append order
func (t *Timeline) Snapshot() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// GetStats returns current timeline statistics
func (t *Timeline) GetStats() TimelineStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := TimelineStats{Turns: len(t.turns)}
	for _, turn := range t.turns {
		switch turn.Kind {
		case KindText:
			stats.TextTurns++
		case KindAudio:
			stats.AudioTurns++
		}
	}
	return stats
}
