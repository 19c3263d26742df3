package explorer

import "fmt"

// SortKey is the column a listing is ordered by.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByCreatedAt SortKey = "created_at"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// DisplayMode is how the client renders entries. It does not affect results.
type DisplayMode string

const (
	DisplayGrid DisplayMode = "grid"
	DisplayList DisplayMode = "list"
)

// Ordering is applied by the store when listing a scope.
type Ordering struct {
	Key       SortKey
	Direction SortDirection
}

// DefaultOrdering sorts by name ascending.
func DefaultOrdering() Ordering {
	return Ordering{Key: SortByName, Direction: SortAsc}
}

func (o Ordering) String() string {
	return string(o.Key) + ":" + string(o.Direction)
}

// ViewState is the per-session projection input. It carries no identity.
type ViewState struct {
	Query    string
	Ordering Ordering
	Mode     DisplayMode
}

// ParseViewState reads the raw query parameters, applying defaults for
// empty values and rejecting unknown ones. The search query is kept as
// typed; a blank one matches everything.
func ParseViewState(query, sort, order, mode string) (ViewState, error) {
	v := ViewState{
		Query:    query,
		Ordering: DefaultOrdering(),
		Mode:     DisplayGrid,
	}

	switch SortKey(sort) {
	case "":
	case SortByName, SortByCreatedAt:
		v.Ordering.Key = SortKey(sort)
	default:
		return v, fmt.Errorf("unknown sort key %q", sort)
	}

	switch SortDirection(order) {
	case "":
	case SortAsc, SortDesc:
		v.Ordering.Direction = SortDirection(order)
	default:
		return v, fmt.Errorf("unknown sort direction %q", order)
	}

	switch DisplayMode(mode) {
	case "":
	case DisplayGrid, DisplayList:
		v.Mode = DisplayMode(mode)
	default:
		return v, fmt.Errorf("unknown display mode %q", mode)
	}

	return v, nil
}

// Location is the active folder plus its root-first ancestor chain.
// FolderID nil and an empty Path mean the root.
type Location struct {
	FolderID *string  `json:"folder_id"`
	Path     []Folder `json:"path"`
}
