/*
Package notes stores the free-text notes the agent records with note_tool.

Two implementations exist: an in-process MemoryStore that lives as long as the
process, and a SQLiteStore (modernc.org/sqlite, CGo-free) that persists notes
across restarts when NOTES_DB is set.
*/
package notes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
)

// ErrEmptyNote is returned when a note has no text.
var ErrEmptyNote = errors.New("note text is empty")

// Store defines the operations on the note log.
type Store interface {
	// Add appends a note and returns it with its id and timestamp.
	Add(ctx context.Context, text string) (models.Note, error)
	// List returns every note, oldest first.
	List(ctx context.Context) ([]models.Note, error)
	Close() error
}

// MemoryStore keeps notes in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	notes []models.Note
	now   func() time.Time
}

// NewMemoryStore returns an empty in-process note store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Add(_ context.Context, text string) (models.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Note{}, ErrEmptyNote
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := models.Note{ID: int64(len(m.notes) + 1), Text: text, CreatedAt: m.now().UTC()}
	m.notes = append(m.notes, n)
	return n, nil
}

func (m *MemoryStore) List(context.Context) ([]models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Note, len(m.notes))
	copy(out, m.notes)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
