package explorer

import (
	"strings"

	models "folio/internal/domain/models/explorer"
)

// Project filters folders and files by query. An entry matches when its
// name or description contains the query, ignoring case. Surrounding
// spaces are part of the query. A blank query returns the inputs
// unchanged. Relative order is preserved.
func Project(folders []models.Folder, files []models.File, query string) ([]models.Folder, []models.File) {
	if strings.TrimSpace(query) == "" {
		return folders, files
	}
	q := strings.ToLower(query)

	outFolders := make([]models.Folder, 0, len(folders))
	for _, f := range folders {
		if matches(q, f.Name, f.Description) {
			outFolders = append(outFolders, f)
		}
	}

	outFiles := make([]models.File, 0, len(files))
	for _, f := range files {
		if matches(q, f.Name, f.Description) {
			outFiles = append(outFiles, f)
		}
	}

	return outFolders, outFiles
}

func matches(q, name string, description *string) bool {
	if strings.Contains(strings.ToLower(name), q) {
		return true
	}
	return description != nil && strings.Contains(strings.ToLower(*description), q)
}

// Entries builds the listing rows, folders first.
func Entries(folders []models.Folder, files []models.File) []models.Entry {
	entries := make([]models.Entry, 0, len(folders)+len(files))
	for _, f := range folders {
		entries = append(entries, models.FolderEntry{Folder: f})
	}
	for _, f := range files {
		entries = append(entries, models.NewFileEntry(f))
	}
	return entries
}

// FileIcon returns the icon category shown for f.
func FileIcon(f *models.File) models.FileIcon {
	return models.IconFor(f.MIME())
}

// Listing is a resolved and projected scope, ready to render.
type Listing struct {
	Location *models.Location `json:"location"`
	View     models.ViewState `json:"-"`
	Entries  []models.Entry   `json:"entries"`
	Total    int              `json:"total"` // entries in scope before the query filter
}
