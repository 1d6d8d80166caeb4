// Package pager implements the table pagination state machine.
//
// The state is a plain value owned by the caller (a browsing session, an API
// request). Every transition takes the current row count where it needs one
// and returns the next state; none of them fail. Out-of-range moves clamp to
// the nearest valid page, and moves at a boundary leave the state unchanged,
// which is how the UI renders disabled navigation buttons as no-ops.
//
// Changing the page size deliberately keeps the current page. Callers that
// want to restart from the first page must call First themselves.
package pager

// DefaultPageSize is the page size of a fresh browsing session.
const DefaultPageSize = 50

// PageSizes are the page sizes offered by the viewer.
var PageSizes = []int{20, 50, 100}

// State is the pagination position of one view.
type State struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// New returns a state on the first page. A non-positive size falls back to
// DefaultPageSize.
func New(pageSize int) State {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return State{Page: 1, PageSize: pageSize}
}

// TotalPages returns max(1, ceil(rows/pageSize)). An empty set is still one
// page so that navigation stays well defined.
func TotalPages(rows, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	if rows <= 0 {
		return 1
	}
	return (rows + pageSize - 1) / pageSize
}

// normalized repairs a zero or corrupted state, e.g. one decoded from an
// older session record.
func (s State) normalized() State {
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}
	if s.Page < 1 {
		s.Page = 1
	}
	return s
}

// TotalPages returns the number of pages for rows under the state's page size.
func (s State) TotalPages(rows int) int {
	s = s.normalized()
	return TotalPages(rows, s.PageSize)
}

// First moves to page 1.
func (s State) First() State {
	s = s.normalized()
	s.Page = 1
	return s
}

// Previous moves back one page, stopping at page 1.
func (s State) Previous() State {
	s = s.normalized()
	if s.Page > 1 {
		s.Page--
	}
	return s
}

// Next moves forward one page, stopping at the last page. A state past
// the last page settles on it.
func (s State) Next(rows int) State {
	s = s.Clamp(rows)
	if s.Page < s.TotalPages(rows) {
		s.Page++
	}
	return s
}

// Last moves to the last page.
func (s State) Last(rows int) State {
	s = s.normalized()
	s.Page = s.TotalPages(rows)
	return s
}

// SetPageSize changes the page size. The current page is kept as is, even if
// it lies past the last page under the new size.
func (s State) SetPageSize(n int) State {
	s = s.normalized()
	if n >= 1 {
		s.PageSize = n
	}
	return s
}

// Clamp brings the page into [1, TotalPages(rows)].
func (s State) Clamp(rows int) State {
	s = s.normalized()
	if total := s.TotalPages(rows); s.Page > total {
		s.Page = total
	}
	return s
}

// Slice returns the half-open row range [start, end) visible on the current
// page. The range always satisfies 0 <= start <= end <= rows and
// end-start <= PageSize; a page past the end yields an empty range.
func (s State) Slice(rows int) (start, end int) {
	s = s.normalized()
	if rows < 0 {
		rows = 0
	}
	start = min((s.Page-1)*s.PageSize, rows)
	end = min(start+s.PageSize, rows)
	return start, end
}

// CanPrevious reports whether First and Previous would move.
func (s State) CanPrevious() bool {
	return s.normalized().Page != 1
}

// CanNext reports whether Next would move forward.
func (s State) CanNext(rows int) bool {
	s = s.normalized()
	return s.Page < s.TotalPages(rows)
}
