package joblog

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRead(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, d.Append("job1", "first line"))
	require.NoError(t, d.Appendf("job1", "progress %d%%", 30))

	lines, next, err := d.Read("job1", 0, 0)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 2, next)
	assert.True(t, strings.HasSuffix(lines[0], "first line"))
	assert.True(t, strings.HasSuffix(lines[1], "progress 30%"))
	// Every line carries a leading timestamp.
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T`, lines[0])
}

func TestReadPagination(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)
	for i := 0; i < 25; i++ {
		require.NoError(t, d.Appendf("job1", "line %d", i))
	}

	page1, next, err := d.Read("job1", 0, 10)
	require.NoError(t, err)
	assert.Len(t, page1, 10)
	assert.Equal(t, 10, next)

	page2, next, err := d.Read("job1", next, 10)
	require.NoError(t, err)
	assert.Len(t, page2, 10)
	assert.Equal(t, 20, next)
	assert.True(t, strings.HasSuffix(page2[0], "line 10"))

	page3, next, err := d.Read("job1", next, 10)
	require.NoError(t, err)
	assert.Len(t, page3, 5)
	assert.Equal(t, 25, next)

	empty, next, err := d.Read("job1", next, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, 25, next)
}

func TestReadMissingFile(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)

	lines, next, err := d.Read("never-logged", 5, 10)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Equal(t, 5, next)
}

func TestAppendTrimsTrailingNewline(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, d.Append("job1", "line with newline\n"))

	data, err := os.ReadFile(d.Path("job1"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}

func TestLogsSurviveReopen(t *testing.T) {
	root := t.TempDir()
	d, err := Open(root)
	require.NoError(t, err)
	require.NoError(t, d.Append("job1", "before restart"))

	reopened, err := Open(root)
	require.NoError(t, err)
	lines, _, err := reopened.Read("job1", 0, 0)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "before restart"))
}

func TestPathIsPerJob(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)
	a := d.Path("a")
	b := d.Path("b")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, "a.log"))
}
