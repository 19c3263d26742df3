package explorer

import (
	"fmt"

	models "folio/internal/domain/models/explorer"
)

// orderClause renders an ORDER BY for a listing. Names use the "C"
// collation so ordering is case-sensitive and byte-wise; id breaks ties
// so equal names or timestamps list stably.
func orderClause(o models.Ordering) string {
	column := `name COLLATE "C"`
	if o.Key == models.SortByCreatedAt {
		column = "created_at"
	}

	direction := "ASC"
	if o.Direction == models.SortDesc {
		direction = "DESC"
	}

	return fmt.Sprintf("ORDER BY %s %s, id %s", column, direction, direction)
}

// scopePredicate renders the parent filter for a listing. The root scope
// uses IS NULL explicitly; "= NULL" would match nothing.
func scopePredicate(column string, scope models.Scope, args []any) (string, []any) {
	if scope.IsRoot() {
		return column + " IS NULL", args
	}
	args = append(args, scope.FolderID())
	return fmt.Sprintf("%s = $%d", column, len(args)), args
}
