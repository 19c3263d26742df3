package explorer

// Scope identifies one children listing: either the root or a folder.
// The zero value is the root scope.
//
// Root is an explicit state rather than an empty folder id so stores can
// tell "no filter" apart from "parent IS NULL".
type Scope struct {
	folderID string
}

// RootScope is the listing of entries without a parent.
func RootScope() Scope {
	return Scope{}
}

// FolderScope is the listing of entries inside folderID.
func FolderScope(folderID string) Scope {
	return Scope{folderID: folderID}
}

// ScopeOf maps a nullable parent pointer to its scope.
func ScopeOf(parentID *string) Scope {
	if parentID == nil || *parentID == "" {
		return RootScope()
	}
	return FolderScope(*parentID)
}

// IsRoot reports whether the scope is the root listing.
func (s Scope) IsRoot() bool {
	return s.folderID == ""
}

// FolderID returns the folder id; it is "" for the root scope.
func (s Scope) FolderID() string {
	return s.folderID
}

// ParentPtr returns the scope as a nullable parent pointer.
func (s Scope) ParentPtr() *string {
	if s.IsRoot() {
		return nil
	}
	id := s.folderID
	return &id
}

// Key is a stable string form used for cache keys and events.
func (s Scope) Key() string {
	if s.IsRoot() {
		return "root"
	}
	return "folder:" + s.folderID
}

func (s Scope) String() string {
	return s.Key()
}
