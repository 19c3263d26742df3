package handler

import (
	"log/slog"
	"net/http"

	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
	"folio/internal/httputil"
	"folio/internal/service/explorer"
)

// ExplorerHandler serves the browsing view
type ExplorerHandler struct {
	tree   explorerSvc.TreeResolver
	logger *slog.Logger
}

// NewExplorerHandler creates a new explorer handler
func NewExplorerHandler(tree explorerSvc.TreeResolver, logger *slog.Logger) *ExplorerHandler {
	return &ExplorerHandler{
		tree:   tree,
		logger: logger,
	}
}

type viewResponse struct {
	Query string               `json:"q"`
	Sort  models.SortKey       `json:"sort"`
	Order models.SortDirection `json:"order"`
	View  models.DisplayMode   `json:"view"`
}

type listingResponse struct {
	Location *models.Location `json:"location"`
	View     viewResponse     `json:"view"`
	Entries  []models.Entry   `json:"entries"`
	Total    int              `json:"total"`
}

// List resolves one scope and applies the view
// GET /api/explorer?folder_id=&q=&sort=&order=&view=
func (h *ExplorerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := models.ParseViewState(q.Get("q"), q.Get("sort"), q.Get("order"), q.Get("view"))
	if err != nil {
		handleError(w, &domain.ValidationError{Message: err.Error()})
		return
	}

	scope := models.ScopeOf(httputil.OptionalQuery(r, "folder_id"))
	listing, err := explorer.Browse(r.Context(), h.tree, scope, view)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listingResponse{
		Location: listing.Location,
		View: viewResponse{
			Query: view.Query,
			Sort:  view.Ordering.Key,
			Order: view.Ordering.Direction,
			View:  view.Mode,
		},
		Entries: listing.Entries,
		Total:   listing.Total,
	})
}
