package leaderboard

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]func(seed ...Entry) Store {
	return map[string]func(seed ...Entry) Store{
		"memory": func(seed ...Entry) Store { return NewMemory(seed...) },
		"sqlite": func(seed ...Entry) Store {
			db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "board.db"), seed...)
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			return db
		},
	}
}

func TestSubmitKeepsBestPerName(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := open()

			require.NoError(t, st.Submit(ctx, "Ana", 300))
			require.NoError(t, st.Submit(ctx, "Ana", 200))
			require.NoError(t, st.Submit(ctx, "Bia", 500))
			require.NoError(t, st.Submit(ctx, "Ana", 700))

			top, err := st.Top(ctx, 10)
			require.NoError(t, err)
			assert.Equal(t, []Entry{{"Ana", 700}, {"Bia", 500}}, top)
		})
	}
}

func TestSubmitIgnoresZeroAndRejectsEmptyName(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := open()

			require.NoError(t, st.Submit(ctx, "Ana", 0))
			assert.ErrorIs(t, st.Submit(ctx, "  ", 100), ErrEmptyName)

			top, err := st.Top(ctx, 0)
			require.NoError(t, err)
			assert.Empty(t, top)
		})
	}
}

func TestBoardKeepsTopTen(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := open()

			for i := 1; i <= 15; i++ {
				require.NoError(t, st.Submit(ctx, fmt.Sprintf("p%02d", i), i*100))
			}
			top, err := st.Top(ctx, 0)
			require.NoError(t, err)
			require.Len(t, top, MaxEntries)
			assert.Equal(t, Entry{"p15", 1500}, top[0])
			assert.Equal(t, Entry{"p06", 600}, top[MaxEntries-1])

			// a score below the cut does not get in
			require.NoError(t, st.Submit(ctx, "late", 50))
			top, _ = st.Top(ctx, 0)
			assert.NotContains(t, top, Entry{"late", 50})

			top3, err := st.Top(ctx, 3)
			require.NoError(t, err)
			assert.Len(t, top3, 3)
		})
	}
}

func TestSeed(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			st := open(DefaultSeed...)
			top, err := st.Top(context.Background(), 0)
			require.NoError(t, err)
			assert.Equal(t, DefaultSeed, top)
		})
	}
}

func TestSQLiteSeedOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "board.db")

	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Submit(ctx, "Ana", 100))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(ctx, path, DefaultSeed...)
	require.NoError(t, err)
	defer db.Close()
	top, err := db.Top(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"Ana", 100}}, top)
}

func TestMemoryConcurrentSubmit(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Submit(context.Background(), fmt.Sprintf("p%d", i%12), i+1)
			_, _ = m.Top(context.Background(), 5)
		}()
	}
	wg.Wait()
	top, _ := m.Top(context.Background(), 0)
	assert.Len(t, top, MaxEntries)
}
