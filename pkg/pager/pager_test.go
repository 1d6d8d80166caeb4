package pager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPagesProperty(t *testing.T) {
	for rows := 0; rows <= 250; rows++ {
		for _, size := range []int{1, 2, 7, 20, 50, 100} {
			want := (rows + size - 1) / size
			if want < 1 {
				want = 1
			}
			require.Equal(t, want, TotalPages(rows, size), "rows=%d size=%d", rows, size)
		}
	}
}

func TestSliceBoundsProperty(t *testing.T) {
	for rows := 0; rows <= 130; rows++ {
		for _, size := range []int{1, 20, 50, 100} {
			// Include pages past the end to cover states left behind by a
			// page size change.
			for page := 1; page <= TotalPages(rows, size)+2; page++ {
				s := State{Page: page, PageSize: size}
				start, end := s.Slice(rows)
				require.True(t, 0 <= start && start <= end && end <= rows,
					"rows=%d size=%d page=%d -> (%d,%d)", rows, size, page, start, end)
				require.LessOrEqual(t, end-start, size)
			}
		}
	}
}

func TestEmptyResultSet(t *testing.T) {
	s := New(50)

	assert.Equal(t, 1, s.TotalPages(0))
	start, end := s.Slice(0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)

	assert.Equal(t, s, s.First())
	assert.Equal(t, s, s.Previous())
	assert.Equal(t, s, s.Next(0))
	assert.Equal(t, s, s.Last(0))

	for _, a := range []Action{ActionFirst, ActionPrevious, ActionNext, ActionLast} {
		assert.False(t, s.Enabled(a, 0), "action %s", a)
	}
}

func TestThreePages(t *testing.T) {
	s := New(50)
	rows := 125

	assert.Equal(t, 3, s.TotalPages(rows))

	start, end := s.Slice(rows)
	assert.Equal(t, [2]int{0, 50}, [2]int{start, end})

	s = s.Last(rows)
	assert.Equal(t, 3, s.Page)
	start, end = s.Slice(rows)
	assert.Equal(t, [2]int{100, 125}, [2]int{start, end})
}

func TestBoundaryIdempotence(t *testing.T) {
	rows := 125
	first := New(50)
	assert.Equal(t, first, first.Previous())
	assert.Equal(t, first, first.Previous().Previous())

	last := first.Last(rows)
	assert.Equal(t, last, last.Next(rows))
	assert.Equal(t, last, last.Next(rows).Next(rows))
}

func TestNavigationSequence(t *testing.T) {
	rows := 125
	s := New(50)

	s = s.Next(rows)
	assert.Equal(t, 2, s.Page)
	assert.True(t, s.CanPrevious())
	assert.True(t, s.CanNext(rows))

	s = s.Next(rows)
	assert.Equal(t, 3, s.Page)
	assert.False(t, s.CanNext(rows))

	s = s.Previous()
	assert.Equal(t, 2, s.Page)

	s = s.First()
	assert.Equal(t, 1, s.Page)
	assert.False(t, s.CanPrevious())
}

func TestSetPageSizeKeepsPage(t *testing.T) {
	rows := 125
	s := New(50).Last(rows)
	require.Equal(t, 3, s.Page)

	s = s.SetPageSize(20)
	assert.Equal(t, 3, s.Page)
	assert.Equal(t, 20, s.PageSize)
	assert.Equal(t, 7, s.TotalPages(rows))

	start, end := s.Slice(rows)
	assert.Equal(t, [2]int{40, 60}, [2]int{start, end})
}

func TestSetPageSizePastLastPage(t *testing.T) {
	rows := 125
	s := New(20).Last(rows)
	require.Equal(t, 7, s.Page)

	s = s.SetPageSize(100)
	assert.Equal(t, 7, s.Page)
	assert.Equal(t, 2, s.TotalPages(rows))

	start, end := s.Slice(rows)
	assert.Equal(t, start, end)
	assert.Equal(t, rows, start)

	assert.Equal(t, 2, s.Clamp(rows).Page)
}

func TestNextPastLastPage(t *testing.T) {
	rows := 125
	s := State{Page: 7, PageSize: 100}

	assert.False(t, s.CanNext(rows))
	assert.True(t, s.CanPrevious())

	next := s.Next(rows)
	assert.Equal(t, 2, next.Page)
	assert.Equal(t, next, next.Next(rows))
	assert.Equal(t, 2, s.Last(rows).Page)
}

func TestSetPageSizeIgnoresInvalid(t *testing.T) {
	s := New(20)
	assert.Equal(t, 20, s.SetPageSize(0).PageSize)
	assert.Equal(t, 20, s.SetPageSize(-5).PageSize)
}

func TestZeroStateIsRepaired(t *testing.T) {
	var s State
	assert.Equal(t, New(DefaultPageSize), s.First())
	start, end := s.Slice(10)
	assert.Equal(t, [2]int{0, 10}, [2]int{start, end})
}

func TestParseAndApplyAction(t *testing.T) {
	a, err := ParseAction(" Next ")
	require.NoError(t, err)
	assert.Equal(t, ActionNext, a)

	_, err = ParseAction("jump")
	assert.Error(t, err)

	s := New(20).Apply(ActionLast, 45)
	assert.Equal(t, 3, s.Page)
	assert.Equal(t, 2, s.Apply(ActionPrevious, 45).Page)
	assert.Equal(t, 1, s.Apply(ActionFirst, 45).Page)
}

func TestValidPageSize(t *testing.T) {
	assert.True(t, ValidPageSize(50, PageSizes))
	assert.False(t, ValidPageSize(30, PageSizes))
}
