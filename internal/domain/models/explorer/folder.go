package explorer

import "time"

// Folder is a named container in the tree. ParentID nil means the folder
// lives at the root.
type Folder struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	ParentID    *string   `json:"parent_id" db:"parent_id"`
	Icon        *string   `json:"icon" db:"icon"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Scope returns the listing the folder appears in.
func (f *Folder) Scope() Scope {
	return ScopeOf(f.ParentID)
}

// OptionalText tracks tri-state semantics for partial updates (RFC 7396 PATCH).
// This is transport-agnostic (no JSON tags) - handler maps from httputil.OptionalString.
//   - Present=false: field absent from request (don't change)
//   - Present=true, Value=nil: field is null (clear)
//   - Present=true, Value=&"text": field has value
type OptionalText struct {
	Present bool
	Value   *string
}

// Set returns a present OptionalText holding v.
func Set(v string) OptionalText {
	return OptionalText{Present: true, Value: &v}
}

// Clear returns a present OptionalText holding null.
func Clear() OptionalText {
	return OptionalText{Present: true}
}
