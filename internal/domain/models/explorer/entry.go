package explorer

import (
	"encoding/json"
	"strings"
)

// EntryKind discriminates the Entry variants.
type EntryKind string

const (
	KindFolder EntryKind = "folder"
	KindFile   EntryKind = "file"
)

// Entry is one row of a listing. The only implementations are FolderEntry
// and FileEntry; switch on the concrete type.
type Entry interface {
	Kind() EntryKind
	EntryID() string
	isEntry()
}

// FolderEntry is a folder row.
type FolderEntry struct {
	Folder
}

// FileEntry is a file row with its resolved icon category.
type FileEntry struct {
	File
	Icon FileIcon `json:"icon"`
}

func (FolderEntry) Kind() EntryKind   { return KindFolder }
func (FileEntry) Kind() EntryKind     { return KindFile }
func (e FolderEntry) EntryID() string { return e.ID }
func (e FileEntry) EntryID() string   { return e.ID }
func (FolderEntry) isEntry()          {}
func (FileEntry) isEntry()            {}

// FileIcon is the icon category shown for a file.
type FileIcon string

const (
	IconImage        FileIcon = "image"
	IconPDF          FileIcon = "pdf"
	IconSpreadsheet  FileIcon = "spreadsheet"
	IconPresentation FileIcon = "presentation"
	IconArchive      FileIcon = "archive"
	IconGeneric      FileIcon = "file"
)

// IconFor picks the icon category from a MIME type.
func IconFor(mimeType string) FileIcon {
	m := strings.ToLower(mimeType)
	switch {
	case m == "":
		return IconGeneric
	case strings.HasPrefix(m, "image/"):
		return IconImage
	case strings.Contains(m, "pdf"):
		return IconPDF
	case strings.Contains(m, "sheet"), strings.Contains(m, "excel"):
		return IconSpreadsheet
	case strings.Contains(m, "presentation"), strings.Contains(m, "powerpoint"):
		return IconPresentation
	case strings.Contains(m, "zip"), strings.Contains(m, "rar"):
		return IconArchive
	default:
		return IconGeneric
	}
}

// NewFileEntry wraps f with its icon.
func NewFileEntry(f File) FileEntry {
	return FileEntry{File: f, Icon: IconFor(f.MIME())}
}

// MarshalJSON adds the "kind" discriminator.
func (e FolderEntry) MarshalJSON() ([]byte, error) {
	type folder Folder
	return json.Marshal(struct {
		Kind EntryKind `json:"kind"`
		folder
	}{KindFolder, folder(e.Folder)})
}

// MarshalJSON adds the "kind" discriminator.
func (e FileEntry) MarshalJSON() ([]byte, error) {
	type file File
	return json.Marshal(struct {
		Kind EntryKind `json:"kind"`
		file
		Icon FileIcon `json:"icon"`
	}{KindFile, file(e.File), e.Icon})
}
