package timeline

import (
	"sync"
	"testing"
	"time"
)

func TestAppendTextPreservesOrder(t *testing.T) {
	tl := New()

	tl.AppendText(AuthorUser, "hello")
	tl.AppendText(AuthorAgent, "hi there")
	tl.AppendText(AuthorUser, "how are you")

	turns := tl.Snapshot()
	if len(turns) != 3 {
		t.Fatalf("Expected 3 turns, got %d", len(turns))
	}

	want := []string{"hello", "hi there", "how are you"}
	for i, turn := range turns {
		if turn.Text != want[i] {
			t.Errorf("Turn %d: expected %q, got %q", i, want[i], turn.Text)
		}
	}
}

func TestIDsUniqueUnderBurst(t *testing.T) {
	tl := New()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		turn := tl.AppendText(AuthorUser, "x")
		if seen[turn.ID] {
			t.Fatalf("Duplicate ID %q at turn %d", turn.ID, i)
		}
		seen[turn.ID] = true
	}
}

func TestTimestampsNonDecreasing(t *testing.T) {
	tl := New()

	// Simulate a clock that steps backwards between appends.
	times := []time.Time{
		time.UnixMilli(1000),
		time.UnixMilli(2000),
		time.UnixMilli(1500),
		time.UnixMilli(3000),
	}
	i := 0
	tl.now = func() time.Time {
		ts := times[i]
		i++
		return ts
	}

	for range times {
		tl.AppendText(AuthorUser, "x")
	}

	turns := tl.Snapshot()
	for j := 1; j < len(turns); j++ {
		if turns[j].CreatedAt.Before(turns[j-1].CreatedAt) {
			t.Errorf("Turn %d timestamp %v precedes turn %d timestamp %v",
				j, turns[j].CreatedAt, j-1, turns[j-1].CreatedAt)
		}
	}
}

func TestAppendAudioCopiesClip(t *testing.T) {
	tl := New()

	wav := []byte{1, 2, 3, 4}
	turn := tl.AppendAudio(AuthorAgent, "spoken reply", wav, 2*time.Second)

	wav[0] = 99

	got := tl.Snapshot()[0]
	if got.Audio[0] != 1 {
		t.Error("Timeline must copy clip bytes on append")
	}
	if turn.Kind != KindAudio {
		t.Errorf("Expected audio kind, got %s", turn.Kind)
	}
	if got.Duration != 2*time.Second {
		t.Errorf("Expected 2s duration, got %v", got.Duration)
	}
	if got.Text != "spoken reply" {
		t.Errorf("Audio turn must carry display text, got %q", got.Text)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tl := New()
	tl.AppendText(AuthorUser, "original")

	snap := tl.Snapshot()
	snap[0].Text = "mutated"

	if tl.Snapshot()[0].Text != "original" {
		t.Error("Mutating a snapshot must not affect the timeline")
	}
}

func TestConcurrentAppends(t *testing.T) {
	tl := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tl.AppendText(AuthorUser, "x")
			}
		}()
	}
	wg.Wait()

	if tl.Len() != 1000 {
		t.Fatalf("Expected 1000 turns, got %d", tl.Len())
	}

	seen := make(map[string]bool)
	for _, turn := range tl.Snapshot() {
		if seen[turn.ID] {
			t.Fatalf("Duplicate ID %q under concurrency", turn.ID)
		}
		seen[turn.ID] = true
	}
}

func TestGetStats(t *testing.T) {
	tl := New()
	tl.AppendText(AuthorUser, "a")
	tl.AppendText(AuthorAgent, "b")
	tl.AppendAudio(AuthorUser, "c", []byte{0}, time.Second)

	stats := tl.GetStats()
	if stats.Turns != 3 || stats.TextTurns != 2 || stats.AudioTurns != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}
