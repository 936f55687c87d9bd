// Package browse slices a filtered product list into viewport-sized pages.
//
// Pagination state is owned by the client: every request carries the desired
// page and viewport width, and the paginator recomputes the visible slice
// from scratch. Out-of-range pages (after a filter change or a resize shrank
// the page count) are silently renormalized to the nearest valid page.
package browse

// Page is one page of a paginated list. CurrentPage is the page actually
// served, which may differ from the requested page after clamping; callers
// compare it against their request to detect and correct drift.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	TotalPages  int
	TotalItems  int
}

// Paginate returns the contiguous, order-preserving slice of list for the
// requested page. TotalPages is ceil(len(list)/pageSize) with a floor of one
// page, so clamping always has a defined target even for an empty list. The
// requested page is clamped into [1, TotalPages].
func Paginate[T any](list []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}

	totalItems := len(list)
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}

	return Page[T]{
		Items:       list[start:end],
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
	}
}

// Breakpoint maps viewport widths up to MaxWidth (exclusive) to a page size.
type Breakpoint struct {
	MaxWidth int
	PageSize int
}

// Breakpoints is an ascending breakpoint table. The page sizes are chosen so
// the product grid fills whole rows at each breakpoint's column count; the
// table mirrors the UI's grid layout and is carried as configuration rather
// than derived from rendered layout.
type Breakpoints []Breakpoint

// DefaultBreakpoints is the stock table: 1/2/3/4 grid columns at the usual
// device widths.
var DefaultBreakpoints = Breakpoints{
	{MaxWidth: 640, PageSize: 4},
	{MaxWidth: 1024, PageSize: 6},
	{MaxWidth: 1440, PageSize: 9},
}

// defaultDesktopPageSize applies above the last breakpoint.
const defaultDesktopPageSize = 12

// PageSizeFor returns the items-per-page count for a viewport width. It is
// evaluated on every call, never cached, so a resize between requests always
// takes effect.
func (b Breakpoints) PageSizeFor(width int) int {
	for _, bp := range b {
		if width < bp.MaxWidth {
			return bp.PageSize
		}
	}
	return defaultDesktopPageSize
}
