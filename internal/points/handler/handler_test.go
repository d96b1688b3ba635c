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
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ecoleta_backend/internal/points/repository"
	"ecoleta_backend/internal/points/service"
	"ecoleta_backend/internal/points/transport"
	"ecoleta_backend/platform/apperr"
	"ecoleta_backend/platform/logger"
	"ecoleta_backend/platform/validator"
)

var (
	knownPointID = uuid.MustParse("7a0c9e52-3b1f-4d8e-9c21-5f6a7b8c9d01")
	knownItemID  = uuid.MustParse("1e2d3c4b-5a69-4788-9a0b-1c2d3e4f5a01")
)

type stubRepo struct {
	points map[uuid.UUID]repository.Point
	filter repository.ListFilter
}

func (r *stubRepo) CreatePoint(_ context.Context, params repository.CreatePointParams) (repository.Point, error) {
	p := repository.Point{
		ID: uuid.New(), Name: params.Name, Email: params.Email, WhatsApp: params.WhatsApp,
		Latitude: params.Latitude, Longitude: params.Longitude, UF: params.UF, City: params.City,
		ItemIDs: params.ItemIDs, CreatedAt: time.Now(),
	}
	r.points[p.ID] = p
	return p, nil
}

func (r *stubRepo) GetPoint(_ context.Context, id uuid.UUID) (repository.Point, error) {
	p, ok := r.points[id]
	if !ok {
		return repository.Point{}, apperr.NotFound("point not found")
	}
	return p, nil
}

func (r *stubRepo) ListPoints(_ context.Context, filter repository.ListFilter) ([]repository.Point, error) {
	r.filter = filter
	out := make([]repository.Point, 0, len(r.points))
	for _, p := range r.points {
		out = append(out, p)
	}
	return out, nil
}

func (r *stubRepo) SetImageKey(_ context.Context, id uuid.UUID, key string) (*string, error) {
	p, ok := r.points[id]
	if !ok {
		return nil, apperr.NotFound("point not found")
	}
	previous := p.ImageKey
	p.ImageKey = &key
	r.points[id] = p
	return previous, nil
}

type stubItems struct{}

func (stubItems) GetItemsByIDs(_ context.Context, ids []uuid.UUID) ([]transport.PointItem, error) {
	out := make([]transport.PointItem, 0, len(ids))
	for _, id := range ids {
		if id != knownItemID {
			return nil, apperr.Validation("unknown items")
		}
		out = append(out, transport.PointItem{ID: id.String(), Title: "Baterias"})
	}
	return out, nil
}

type stubStorage struct {
	uploaded []string
}

func (s *stubStorage) UploadFile(_ context.Context, _, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	if _, err := io.ReadAll(reader); err != nil {
		return "", err
	}
	key := folder + "/" + fileName
	s.uploaded = append(s.uploaded, key)
	return key, nil
}

func (s *stubStorage) DeleteObject(context.Context, string, string) error { return nil }
func (s *stubStorage) EnsureBucketExists(context.Context, string) error   { return nil }
func (s *stubStorage) EnsurePublicRead(context.Context, string) error     { return nil }
func (s *stubStorage) PublicURL(bucket, key string) string                { return "http://cdn.test/" + bucket + "/" + key }
func (s *stubStorage) ValidateContentType(string) error                   { return nil }
func (s *stubStorage) GetMaxFileSize() int64                              { return 1024 }
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
		repo: &stubRepo{points: map[uuid.UUID]repository.Point{
			knownPointID: {
				ID: knownPointID, Name: "Ecoponto Vila Mariana", Email: "eco@vila.org", WhatsApp: "+5511987654321",
				Latitude: -23.58, Longitude: -46.63, UF: "SP", City: "São Paulo",
				ItemIDs: []uuid.UUID{knownItemID}, CreatedAt: time.Now(),
			},
		}},
		storage: &stubStorage{},
	}
	val := validator.New()
	svc := service.New(service.Deps{
		Repo:       h.repo,
		Items:      stubItems{},
		Storage:    h.storage,
		Bucket:     "point-images",
		AppBaseURL: "https://ecoleta.test",
		Validator:  val,
		Log:        logger.Nop(),
	})
	handler := New(svc, val)

	engine := gin.New()
	group := engine.Group("/api/v1/points")
	group.POST("", handler.CreatePoint)
	group.GET("", handler.ListPoints)
	group.GET("/:id", handler.GetPoint)
	group.POST("/:id/image", handler.UploadImage)
	group.GET("/:id/qrcode", handler.QRCode)
	h.engine = engine
	return h
}

func (h harness) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func imageRequest(t *testing.T, path, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="fachada.png"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func validBody(items string) string {
	return `{"name":"Recicla Centro","email":" Contato@Recicla.com ","whatsapp":"(11) 98765-4321",` +
		`"latitude":-23.55,"longitude":-46.63,"uf":"sp","city":"São Paulo","items":[` + items + `]}`
}

func TestPointRoutesStatusCodes(t *testing.T) {
	pointPath := "/api/v1/points/" + knownPointID.String()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "create", method: http.MethodPost, path: "/api/v1/points", body: validBody(`"` + knownItemID.String() + `"`), want: http.StatusCreated},
		{name: "create malformed json", method: http.MethodPost, path: "/api/v1/points", body: `{"name":`, want: http.StatusBadRequest},
		{name: "create unknown item", method: http.MethodPost, path: "/api/v1/points", body: validBody(`"` + uuid.NewString() + `"`), want: http.StatusBadRequest},
		{name: "list", method: http.MethodGet, path: "/api/v1/points?uf=sp&city=S%C3%A3o+Paulo", want: http.StatusOK},
		{name: "list invalid uf", method: http.MethodGet, path: "/api/v1/points?uf=S1", want: http.StatusBadRequest},
		{name: "list invalid item filter", method: http.MethodGet, path: "/api/v1/points?items=nope", want: http.StatusBadRequest},
		{name: "get", method: http.MethodGet, path: pointPath, want: http.StatusOK},
		{name: "get malformed id", method: http.MethodGet, path: "/api/v1/points/42", want: http.StatusBadRequest},
		{name: "get unknown id", method: http.MethodGet, path: "/api/v1/points/" + uuid.NewString(), want: http.StatusNotFound},
		{name: "qrcode unknown id", method: http.MethodGet, path: "/api/v1/points/" + uuid.NewString() + "/qrcode", want: http.StatusNotFound},
		{name: "upload without file", method: http.MethodPost, path: pointPath + "/image", body: "{}", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.serve(jsonRequest(tt.method, tt.path, tt.body))
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d (%s)", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreatePointReturnsNormalizedPoint(t *testing.T) {
	h := newHarness(t)

	rec := h.serve(jsonRequest(http.MethodPost, "/api/v1/points", validBody(`"`+knownItemID.String()+`"`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var point transport.PointResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &point); err != nil {
		t.Fatalf("decode point: %v", err)
	}
	if point.Email != "contato@recicla.com" || point.UF != "SP" || point.WhatsApp != "+5511987654321" {
		t.Fatalf("unexpected point %+v", point)
	}
	if len(point.Items) != 1 || point.Items[0].Title != "Baterias" {
		t.Fatalf("unexpected items %+v", point.Items)
	}
}

func TestCreatePointReportsFieldErrors(t *testing.T) {
	h := newHarness(t)

	rec := h.serve(jsonRequest(http.MethodPost, "/api/v1/points", `{"name":"Recicla","email":"nope","uf":"sp","city":"Santos","items":[]}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	for field, tag := range map[string]string{"email": "email", "whatsapp": "required", "items": "min"} {
		if body.Details[field] != tag {
			t.Fatalf("expected %s to fail %q, got %v", field, tag, body.Details)
		}
	}
}

func TestListPointsPassesFilter(t *testing.T) {
	h := newHarness(t)

	rec := h.serve(jsonRequest(http.MethodGet, "/api/v1/points?uf=rj&items="+knownItemID.String(), ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if h.repo.filter.UF != "RJ" || len(h.repo.filter.ItemIDs) != 1 || h.repo.filter.ItemIDs[0] != knownItemID {
		t.Fatalf("unexpected filter %+v", h.repo.filter)
	}
	var points []transport.PointResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode points: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected one point, got %d", len(points))
	}
}

func TestUploadImage(t *testing.T) {
	path := "/api/v1/points/" + knownPointID.String() + "/image"

	tests := []struct {
		name        string
		contentType string
		size        int
		want        int
	}{
		{name: "png", contentType: "image/png", size: 16, want: http.StatusOK},
		{name: "gif rejected", contentType: "image/gif", size: 16, want: http.StatusBadRequest},
		{name: "too large", contentType: "image/png", size: 2048, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.serve(imageRequest(t, path, tt.contentType, bytes.Repeat([]byte{0x89}, tt.size)))
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d (%s)", tt.want, rec.Code, rec.Body.String())
			}
			if tt.want != http.StatusOK {
				if len(h.storage.uploaded) != 0 {
					t.Fatalf("expected nothing stored, got %v", h.storage.uploaded)
				}
				return
			}
			var resp transport.ImageResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode image response: %v", err)
			}
			if !strings.HasPrefix(resp.ImageURL, "http://cdn.test/point-images/points/"+knownPointID.String()) {
				t.Fatalf("unexpected image url %q", resp.ImageURL)
			}
		})
	}
}

func TestQRCodeIsPNG(t *testing.T) {
	h := newHarness(t)

	rec := h.serve(jsonRequest(http.MethodGet, "/api/v1/points/"+knownPointID.String()+"/qrcode", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("body is not a png")
	}
}
