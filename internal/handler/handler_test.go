package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/config"
	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
	"folio/internal/domain/storage"
	"folio/internal/repository/memory"
	serviceAuth "folio/internal/service/auth"
	"folio/internal/service/explorer"
	"folio/internal/session"
	memstorage "folio/internal/storage/memory"
)

type testServer struct {
	mux   *http.ServeMux
	blobs *memstorage.BlobStore
	mut   explorerSvc.MutationCoordinator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	policy, err := config.LoadUploadPolicy()
	require.NoError(t, err)

	store := memory.NewStore()
	blobs := memstorage.NewBlobStore()
	tree := explorer.NewTreeService(store.Folders(), store.Files(), nil, logger)
	deps := explorer.Dependencies{
		Folders:      store.Folders(),
		Files:        store.Files(),
		Blobs:        blobs,
		Bucket:       storage.NewLazyBucket(blobs, storage.BucketSpec{Name: config.DefaultBucket, Public: true}),
		TxManager:    store,
		Authorizer:   serviceAuth.NewSessionAuthorizer(nil),
		Tree:         tree,
		Policy:       policy,
		SignedURLTTL: time.Minute,
		Logger:       logger,
	}
	mut := explorer.NewMutationService(deps)

	explorerHandler := NewExplorerHandler(tree, logger)
	folderHandler := NewFolderHandler(mut, tree, logger)
	fileHandler := NewFileHandler(mut, explorer.NewUploadService(deps), explorer.NewPreviewService(deps), policy.MaxSizeBytes, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HealthCheck)
	mux.HandleFunc("GET /api/session", GetSession)
	mux.HandleFunc("GET /api/explorer", explorerHandler.List)
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.GetFolder)
	mux.HandleFunc("GET /api/folders/{id}/path", folderHandler.GetPath)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.DeleteFolder)
	mux.HandleFunc("POST /api/files", fileHandler.UploadFiles)
	mux.HandleFunc("GET /api/files/{id}", fileHandler.GetFile)
	mux.HandleFunc("PATCH /api/files/{id}", fileHandler.UpdateFile)
	mux.HandleFunc("DELETE /api/files/{id}", fileHandler.DeleteFile)
	mux.HandleFunc("GET /api/files/{id}/preview", fileHandler.Preview)
	mux.HandleFunc("GET /api/files/{id}/download", fileHandler.Download)

	return &testServer{mux: mux, blobs: blobs, mut: mut}
}

func asAdmin(r *http.Request) *http.Request {
	return r.WithContext(session.WithSession(r.Context(), &session.Session{
		User:  &session.User{ID: "admin"},
		Admin: true,
	}))
}

func (s *testServer) do(t *testing.T, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, r)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

type part struct {
	name, contentType, body string
}

func multipartRequest(t *testing.T, folderID string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if folderID != "" {
		require.NoError(t, mw.WriteField("folder_id", folderID))
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+p.name+`"`)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) mkdir(t *testing.T, name string, parentID *string) *models.Folder {
	t.Helper()
	ctx := session.WithSession(context.Background(), &session.Session{User: &session.User{ID: "admin"}, Admin: true})
	f, err := s.mut.CreateFolder(ctx, &explorerSvc.CreateFolderRequest{Name: name, ParentID: parentID})
	require.NoError(t, err)
	return f
}

func TestHealthAndSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	got := decode[map[string]any](t, rec)
	assert.Equal(t, false, got["authenticated"])
	assert.Nil(t, got["user"])

	rec = s.do(t, asAdmin(httptest.NewRequest(http.MethodGet, "/api/session", nil)))
	got = decode[map[string]any](t, rec)
	assert.Equal(t, true, got["admin"])
}

func TestCreateFolder(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, jsonRequest(http.MethodPost, "/api/folders", `{"name":"Reports","description":"Q1 docs"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "visitors cannot create")
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = s.do(t, asAdmin(jsonRequest(http.MethodPost, "/api/folders", `{"name":"Reports","description":"Q1 docs"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Folder](t, rec)
	assert.Equal(t, "Reports", created.Name)

	rec = s.do(t, asAdmin(jsonRequest(http.MethodPost, "/api/folders", `{"name":"Reports"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	existing := decode[models.Folder](t, rec)
	assert.Equal(t, created.ID, existing.ID, "409 carries the existing folder")

	rec = s.do(t, asAdmin(jsonRequest(http.MethodPost, "/api/folders", `{"name":"a/b"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decode[map[string]any](t, rec)
	assert.Equal(t, "File name contains invalid characters", problem["detail"])

	rec = s.do(t, asAdmin(jsonRequest(http.MethodPost, "/api/folders", `{"name":"x","bogus":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExplorerList(t *testing.T) {
	s := newTestServer(t)
	reports := s.mkdir(t, "Reports", nil)
	s.mkdir(t, "Photos", nil)
	inner := s.mkdir(t, "2024", &reports.ID)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/explorer?q=rep&view=list", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var listing struct {
		Location models.Location   `json:"location"`
		View     map[string]string `json:"view"`
		Entries  []map[string]any  `json:"entries"`
		Total    int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Nil(t, listing.Location.FolderID)
	assert.Equal(t, 2, listing.Total)
	require.Len(t, listing.Entries, 1)
	assert.Equal(t, "folder", listing.Entries[0]["kind"])
	assert.Equal(t, "Reports", listing.Entries[0]["name"])
	assert.Equal(t, "list", listing.View["view"])

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/explorer?folder_id="+inner.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Location.Path, 2)
	assert.Equal(t, "Reports", listing.Location.Path[0].Name)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/explorer?sort=size", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/explorer?folder_id=missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/folders/"+inner.ID+"/path", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	path := decode[map[string][]models.Folder](t, rec)
	assert.Len(t, path["path"], 2)
}

func TestUpdateFolder_MoveAndRename(t *testing.T) {
	s := newTestServer(t)
	a := s.mkdir(t, "a", nil)
	b := s.mkdir(t, "b", nil)

	rec := s.do(t, asAdmin(jsonRequest(http.MethodPatch, "/api/folders/"+b.ID, `{"parent_id":"`+a.ID+`","name":"bee","icon":"star"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[models.Folder](t, rec)
	assert.Equal(t, "bee", got.Name)
	assert.Equal(t, a.ID, *got.ParentID)
	assert.Equal(t, "star", *got.Icon)

	rec = s.do(t, asAdmin(jsonRequest(http.MethodPatch, "/api/folders/"+a.ID, `{"parent_id":"`+b.ID+`"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "cycle rejected")

	rec = s.do(t, asAdmin(jsonRequest(http.MethodPatch, "/api/folders/"+b.ID, `{"parent_id":null}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[models.Folder](t, rec)
	assert.Nil(t, got.ParentID)

	rec = s.do(t, asAdmin(jsonRequest(http.MethodPatch, "/api/folders/"+b.ID, `{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdate_InvalidFieldLeavesEntryInPlace(t *testing.T) {
	s := newTestServer(t)
	dst := s.mkdir(t, "dst", nil)
	folder := s.mkdir(t, "keep", nil)

	rec := s.do(t, asAdmin(multipartRequest(t, "", part{"report.pdf", "application/pdf", "%PDF-1.4"})))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Results []struct {
			File models.File `json:"file"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	file := created.Results[0].File

	for _, tc := range []struct {
		name   string
		target string
		body   string
	}{
		{"file traversal name", "/api/files/" + file.ID, `{"folder_id":"` + dst.ID + `","name":"../evil"}`},
		{"file long description", "/api/files/" + file.ID, `{"folder_id":"` + dst.ID + `","description":"` + strings.Repeat("x", 2001) + `"}`},
		{"folder empty name", "/api/folders/" + folder.ID, `{"parent_id":"` + dst.ID + `","name":""}`},
		{"folder unknown icon", "/api/folders/" + folder.ID, `{"parent_id":"` + dst.ID + `","icon":"rocket"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, asAdmin(jsonRequest(http.MethodPatch, tc.target, tc.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	gotFile, err := s.mut.GetFile(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Nil(t, gotFile.FolderID, "file stays in root")
	assert.Equal(t, "report.pdf", gotFile.Name)
	assert.Nil(t, gotFile.Description)

	gotFolder, err := s.mut.GetFolder(context.Background(), folder.ID)
	require.NoError(t, err)
	assert.Nil(t, gotFolder.ParentID, "folder stays in root")
	assert.Equal(t, "keep", gotFolder.Name)
	assert.Nil(t, gotFolder.Icon)
}

func TestUploadFiles(t *testing.T) {
	s := newTestServer(t)
	docs := s.mkdir(t, "Docs", nil)

	rec := s.do(t, asAdmin(multipartRequest(t, docs.ID, part{"a.txt", "text/plain", "hello"})))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, asAdmin(multipartRequest(t, docs.ID,
		part{"b.txt", "text/plain", "b"},
		part{"c.exe", "application/x-msdownload", "MZ"},
	)))
	require.Equal(t, http.StatusMultiStatus, rec.Code, rec.Body.String())
	var batch struct {
		Results []struct {
			Name   string          `json:"name"`
			Status int             `json:"status"`
			File   *models.File    `json:"file"`
			Error  json.RawMessage `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	require.Len(t, batch.Results, 2)
	assert.Equal(t, http.StatusCreated, batch.Results[0].Status)
	assert.Equal(t, docs.ID, *batch.Results[0].File.FolderID)
	assert.Equal(t, http.StatusUnsupportedMediaType, batch.Results[1].Status)
	assert.Contains(t, string(batch.Results[1].Error), "type_rejected")

	rec = s.do(t, asAdmin(multipartRequest(t, "", part{"d.exe", "application/x-msdownload", "MZ"})))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = s.do(t, multipartRequest(t, "", part{"e.txt", "text/plain", "e"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, 2, s.blobs.Len())
}

func TestFileLifecycle(t *testing.T) {
	s := newTestServer(t)
	dst := s.mkdir(t, "dst", nil)

	rec := s.do(t, asAdmin(multipartRequest(t, "", part{"report.pdf", "application/pdf", "%PDF-1.4"})))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Results []struct {
			File models.File `json:"file"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	file := created.Results[0].File

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/files/"+file.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "pdf", got["icon"])

	rec = s.do(t, asAdmin(jsonRequest(http.MethodPatch, "/api/files/"+file.ID, `{"folder_id":"`+dst.ID+`","description":"final"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[models.File](t, rec)
	assert.Equal(t, dst.ID, *moved.FolderID)
	assert.Equal(t, file.FilePath, moved.FilePath, "move keeps the storage path")
	assert.Equal(t, "final", *moved.Description)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/files/"+file.ID+"/preview", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[map[string]any](t, rec)
	assert.Equal(t, "pdf", preview["kind"])
	assert.NotEmpty(t, preview["url"])

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/files/"+file.ID+"/download", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=report.pdf`, rec.Header().Get("Content-Disposition"))

	rec = s.do(t, asAdmin(httptest.NewRequest(http.MethodDelete, "/api/files/"+file.ID, nil)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/files/"+file.ID+"/preview", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFolder(t *testing.T) {
	s := newTestServer(t)
	top := s.mkdir(t, "top", nil)
	s.mkdir(t, "child", &top.ID)

	rec := s.do(t, httptest.NewRequest(http.MethodDelete, "/api/folders/"+top.ID, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, asAdmin(httptest.NewRequest(http.MethodDelete, "/api/folders/"+top.ID, nil)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/folders/"+top.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
