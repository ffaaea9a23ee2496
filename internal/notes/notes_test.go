package notes

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "notes", "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sq,
	}
}

func TestStore_AddAndList(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			n1, err := s.Add(ctx, "  alice reported the launch crash  ")
			require.NoError(t, err)
			assert.Equal(t, "alice reported the launch crash", n1.Text)
			assert.False(t, n1.CreatedAt.IsZero())

			n2, err := s.Add(ctx, "flash messages need a timeout option")
			require.NoError(t, err)
			assert.Greater(t, n2.ID, n1.ID)

			got, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, n1.Text, got[0].Text)
			assert.Equal(t, n2.Text, got[1].Text)
		})
	}
}

func TestStore_RejectsEmpty(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Add(context.Background(), " \n ")
			assert.ErrorIs(t, err, ErrEmptyNote)
		})
	}
}

func TestMemoryStore_ConcurrentAdds(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Add(context.Background(), "note")
		}()
	}
	wg.Wait()

	got, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = s.Add(ctx, "remember me")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "remember me", got[0].Text)
}
