package shared

// Pagination defaults for list operations.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page is an offset/limit window over an ordered result set.
type Page struct {
	Offset int
	Limit  int
}

// DefaultPage returns the first page with the default size.
func DefaultPage() Page {
	return Page{Offset: 0, Limit: DefaultLimit}
}

// NewPage builds a normalized page from raw query values.
func NewPage(offset, limit int) Page {
	return Page{Offset: offset, Limit: limit}.Normalize()
}

// Normalize clamps the page to valid bounds: a non-positive limit becomes the
// default and a negative offset becomes zero.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}
