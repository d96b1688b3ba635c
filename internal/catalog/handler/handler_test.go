package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ecoleta_backend/internal/adapters/storage"
	"ecoleta_backend/internal/catalog/repository"
	"ecoleta_backend/internal/catalog/service"
	"ecoleta_backend/internal/catalog/transport"
	"ecoleta_backend/platform/apperr"
	"ecoleta_backend/platform/logger"
	"ecoleta_backend/platform/validator"
)

type stubRepo struct {
	items []repository.Item
}

func (r *stubRepo) ListItems(context.Context) ([]repository.Item, error) {
	return r.items, nil
}

func (r *stubRepo) GetItemsByIDs(context.Context, []uuid.UUID) ([]repository.Item, error) {
	return nil, nil
}

func (r *stubRepo) CreateItem(_ context.Context, params repository.CreateItemParams) (repository.Item, error) {
	for _, item := range r.items {
		if item.Title == params.Title {
			return repository.Item{}, apperr.Conflict("item already exists")
		}
	}
	item := repository.Item{ID: uuid.New(), Title: params.Title, ImageKey: params.ImageKey, CreatedAt: time.Now()}
	r.items = append(r.items, item)
	return item, nil
}

func (r *stubRepo) InsertMissing(_ context.Context, params []repository.CreateItemParams) (int, error) {
	return len(params), nil
}

type stubStorage struct {
	uploaded []string
	deleted  []string
}

func (s *stubStorage) UploadFile(_ context.Context, _, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	if _, err := io.ReadAll(reader); err != nil {
		return "", err
	}
	key := folder + "/" + fileName
	s.uploaded = append(s.uploaded, key)
	return key, nil
}

func (s *stubStorage) DeleteObject(_ context.Context, _, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *stubStorage) EnsureBucketExists(context.Context, string) error { return nil }
func (s *stubStorage) EnsurePublicRead(context.Context, string) error   { return nil }
func (s *stubStorage) PublicURL(bucket, key string) string              { return "http://cdn.test/" + bucket + "/" + key }
func (s *stubStorage) GetMaxFileSize() int64                            { return 512 }
func (s *stubStorage) ValidateContentType(ct string) error {
	return storage.ValidateImageContentType(ct)
}
func (s *stubStorage) ValidateFileSize(size int64) error {
	if size > s.GetMaxFileSize() {
		return errors.New("file too large")
	}
	return nil
}

type harness struct {
	engine  *gin.Engine
	repo    *stubRepo
	storage *stubStorage
}

func newHarness(t *testing.T) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := harness{
		repo: &stubRepo{items: []repository.Item{
			{ID: uuid.New(), Title: "Lâmpadas", ImageKey: "lampadas.svg", CreatedAt: time.Now()},
			{ID: uuid.New(), Title: "Pilhas e Baterias", ImageKey: "baterias.svg", CreatedAt: time.Now()},
		}},
		storage: &stubStorage{},
	}
	handler := New(service.New(h.repo, h.storage, "item-icons", nil, logger.Nop()), validator.New())

	engine := gin.New()
	engine.GET("/api/v1/items", handler.ListItems)
	engine.POST("/api/v1/admin/items", handler.CreateItem)
	h.engine = engine
	return h
}

type iconPart struct {
	contentType string
	size        int
}

func createItemRequest(t *testing.T, title string, icon *iconPart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if title != "" {
		if err := writer.WriteField("title", title); err != nil {
			t.Fatalf("write title: %v", err)
		}
	}
	if icon != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="icon"; filename="oleo.svg"`)
		header.Set("Content-Type", icon.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(bytes.Repeat([]byte("a"), icon.size)); err != nil {
			t.Fatalf("write icon: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/items", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestListItemsReturnsCatalogOrder(t *testing.T) {
	h := newHarness(t)

	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var items []transport.ItemResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 2 || items[0].Title != "Lâmpadas" || items[1].Title != "Pilhas e Baterias" {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[0].ImageURL != "http://cdn.test/item-icons/lampadas.svg" {
		t.Fatalf("unexpected image url %q", items[0].ImageURL)
	}
}

func TestCreateItem(t *testing.T) {
	svgIcon := &iconPart{contentType: "image/svg+xml", size: 64}

	tests := []struct {
		name       string
		title      string
		icon       *iconPart
		want       int
		wantStored bool
	}{
		{name: "created", title: "Óleo de Cozinha", icon: svgIcon, want: http.StatusCreated, wantStored: true},
		{name: "missing title", icon: svgIcon, want: http.StatusBadRequest},
		{name: "title too short", title: "O", icon: svgIcon, want: http.StatusBadRequest},
		{name: "missing icon", title: "Óleo de Cozinha", want: http.StatusBadRequest},
		{name: "icon not an image", title: "Óleo de Cozinha", icon: &iconPart{contentType: "text/plain", size: 16}, want: http.StatusBadRequest},
		{name: "icon too large", title: "Óleo de Cozinha", icon: &iconPart{contentType: "image/png", size: 1024}, want: http.StatusBadRequest},
		{name: "duplicate title", title: "Lâmpadas", icon: svgIcon, want: http.StatusConflict, wantStored: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := httptest.NewRecorder()
			h.engine.ServeHTTP(rec, createItemRequest(t, tt.title, tt.icon))
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d (%s)", tt.want, rec.Code, rec.Body.String())
			}
			if stored := len(h.storage.uploaded) > 0; stored != tt.wantStored {
				t.Fatalf("expected stored=%v, got uploads %v", tt.wantStored, h.storage.uploaded)
			}
		})
	}
}

func TestCreateItemConflictRemovesIcon(t *testing.T) {
	h := newHarness(t)

	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, createItemRequest(t, "Lâmpadas", &iconPart{contentType: "image/svg+xml", size: 32}))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(h.storage.deleted) != 1 || h.storage.deleted[0] != h.storage.uploaded[0] {
		t.Fatalf("expected orphaned icon to be removed, uploaded %v deleted %v", h.storage.uploaded, h.storage.deleted)
	}
}
