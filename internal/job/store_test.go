package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore()
	j := New("layout.json", "testboard", "")
	s.Put(j)

	got, ok := s.Get(j.ID)
	require.True(t, ok)

	// Mutating the returned row must not leak into the table.
	got.Status = Completed
	again, _ := s.Get(j.ID)
	assert.Equal(t, Pending, again.Status)
}

func TestStorePutDetachesCallerRow(t *testing.T) {
	s := NewStore()
	j := New("layout.json", "testboard", "")
	s.Put(j)

	j.Status = Failed
	got, _ := s.Get(j.ID)
	assert.Equal(t, Pending, got.Status)
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore()
	j := New("layout.json", "testboard", "")
	s.Put(j)

	ok := s.Update(j.ID, func(row *Job) {
		row.Status = Running
		row.Progress = 30
	})
	require.True(t, ok)

	got, _ := s.Get(j.ID)
	assert.Equal(t, Running, got.Status)
	assert.Equal(t, 30, got.Progress)

	assert.False(t, s.Update("unknown", func(*Job) {}))
}

func TestStoreListNewestFirst(t *testing.T) {
	s := NewStore()
	older := New("a.json", "testboard", "")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := New("b.json", "testboard", "")
	s.Put(older)
	s.Put(newer)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, Pending.Terminal())
	assert.False(t, Running.Terminal())
	assert.True(t, Completed.Terminal())
	assert.True(t, Failed.Terminal())
	assert.True(t, Cancelled.Terminal())
}

func TestCancelSet(t *testing.T) {
	c := NewCancelSet()
	assert.False(t, c.Requested("a"))

	c.Request("a")
	assert.True(t, c.Requested("a"))
	assert.False(t, c.Requested("b"))

	// Requesting twice is harmless.
	c.Request("a")
	assert.True(t, c.Requested("a"))
}

func TestNewJobDefaults(t *testing.T) {
	j := New("layout.json", "testboard", "iso")

	assert.NotEmpty(t, j.ID)
	assert.Equal(t, Pending, j.Status)
	assert.Equal(t, "testboard", j.BoardID)
	assert.Equal(t, "iso", j.Variant)
	assert.Equal(t, "layout.json", j.LayoutPath)
	assert.False(t, j.CreatedAt.IsZero())
	assert.True(t, j.StartedAt.IsZero())

	other := New("layout.json", "testboard", "iso")
	assert.NotEqual(t, j.ID, other.ID)
}
