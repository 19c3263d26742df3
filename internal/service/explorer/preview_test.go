package explorer

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
)

func TestPreview_SignedURL(t *testing.T) {
	h := newHarness(t)
	file := h.put(t, nil, "photo.png", "image/png", "png")

	p, err := h.preview.Preview(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, explorerSvc.PreviewImage, p.Kind)
	assert.True(t, strings.HasPrefix(p.URL, "memory://blobs/"+file.FilePath), p.URL)
	assert.WithinDuration(t, time.Now().Add(time.Minute), p.ExpiresAt, 5*time.Second)
	assert.Empty(t, p.ViewerURLs)
}

func TestPreview_OfficeViewers(t *testing.T) {
	h := newHarness(t)
	file := h.put(t, nil, "budget.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx")

	p, err := h.preview.Preview(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, explorerSvc.PreviewOffice, p.Kind)
	require.Len(t, p.ViewerURLs, 2)

	office, err := url.Parse(p.ViewerURLs[0])
	require.NoError(t, err)
	assert.Equal(t, "view.officeapps.live.com", office.Host)
	assert.Equal(t, p.URL, office.Query().Get("src"))

	google, err := url.Parse(p.ViewerURLs[1])
	require.NoError(t, err)
	assert.Equal(t, p.URL, google.Query().Get("url"))
	assert.Equal(t, "true", google.Query().Get("embedded"))
}

func TestPreview_SignFailure(t *testing.T) {
	h := newHarness(t)
	file := h.put(t, nil, "a.txt", "text/plain", "a")
	h.blobs.FailSign = func(string) error { return errors.New("throttled") }

	_, err := h.preview.Preview(context.Background(), file.ID)
	var previewErr *domain.PreviewError
	require.ErrorAs(t, err, &previewErr)
	assert.Equal(t, file.ID, previewErr.FileID)
	assert.ErrorIs(t, err, domain.ErrPreview)
}

func TestDownload(t *testing.T) {
	h := newHarness(t)
	file := h.put(t, nil, "a.txt", "text/plain", "contents")

	body, got, err := h.preview.Download(context.Background(), file.ID)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))
	assert.Equal(t, file.ID, got.ID)

	_, _, err = h.preview.Download(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPreviewKindFor(t *testing.T) {
	tests := []struct {
		name string
		mime string
		want explorerSvc.PreviewKind
	}{
		{"a.png", "image/png", explorerSvc.PreviewImage},
		{"a", "application/pdf", explorerSvc.PreviewPDF},
		{"a", "video/mp4", explorerSvc.PreviewVideo},
		{"a", "audio/mpeg", explorerSvc.PreviewAudio},
		{"a", "application/msword", explorerSvc.PreviewOffice},
		{"a", "application/vnd.ms-powerpoint", explorerSvc.PreviewOffice},
		{"a", "text/csv", explorerSvc.PreviewText},
		{"deck.PPTX", "", explorerSvc.PreviewOffice},
		{"clip.webm", "application/octet-stream", explorerSvc.PreviewVideo},
		{"archive.zip", "application/zip", explorerSvc.PreviewDownload},
		{"noext", "", explorerSvc.PreviewDownload},
	}
	for _, tt := range tests {
		f := &models.File{Name: tt.name}
		if tt.mime != "" {
			f.MimeType = &tt.mime
		}
		assert.Equal(t, tt.want, PreviewKindFor(f), "%s %s", tt.name, tt.mime)
	}
}
