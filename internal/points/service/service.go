// Package service implements collection point registration and lookup.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/skip2/go-qrcode"

	"ecoleta_backend/internal/adapters/storage"
	"ecoleta_backend/internal/events"
	"ecoleta_backend/internal/points/repository"
	"ecoleta_backend/internal/points/transport"
	"ecoleta_backend/platform/apperr"
	"ecoleta_backend/platform/logger"
	"ecoleta_backend/platform/phone"
	"ecoleta_backend/platform/sanitize"
	"ecoleta_backend/platform/validator"
)

const (
	imageFolder = "points"
	qrCodeSize  = 256
)

// ItemReader resolves item IDs owned by the catalog. Unknown IDs must be
// reported as a validation error.
type ItemReader interface {
	GetItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]transport.PointItem, error)
}

// Service provides business logic for collection points.
type Service struct {
	repo       repository.Repository
	items      ItemReader
	storage    storage.StorageService
	bucket     string
	appBaseURL string
	val        *validator.Validator
	bus        events.Bus
	log        *logger.Logger
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo       repository.Repository
	Items      ItemReader
	Storage    storage.StorageService
	Bucket     string
	AppBaseURL string
	Validator  *validator.Validator
	Bus        events.Bus
	Log        *logger.Logger
}

// New creates a points service.
func New(deps Deps) *Service {
	return &Service{
		repo:       deps.Repo,
		items:      deps.Items,
		storage:    deps.Storage,
		bucket:     deps.Bucket,
		appBaseURL: strings.TrimRight(deps.AppBaseURL, "/"),
		val:        deps.Validator,
		bus:        deps.Bus,
		log:        deps.Log,
	}
}

// ImageUpload describes a photo received for a point.
type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// CreatePoint normalizes, validates and stores a new point, then publishes
// PointRegistered.
func (s *Service) CreatePoint(ctx context.Context, req transport.CreatePointRequest) (transport.PointResponse, error) {
	req = normalizeCreateRequest(req)
	if err := s.val.Struct(req); err != nil {
		return transport.PointResponse{}, apperr.Validation("validation failed").WithDetails(validator.FieldErrors(err))
	}

	itemIDs, err := parseItemIDs(req.Items)
	if err != nil {
		return transport.PointResponse{}, err
	}
	items, err := s.items.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		return transport.PointResponse{}, err
	}
	itemIDs = catalogOrder(itemIDs, items)

	params := repository.CreatePointParams{
		Name:      req.Name,
		Email:     req.Email,
		WhatsApp:  req.WhatsApp,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		UF:        req.UF,
		City:      req.City,
		ItemIDs:   itemIDs,
	}

	point, err := s.repo.CreatePoint(ctx, params)
	if err != nil {
		s.log.DatabaseError("create point", err)
		return transport.PointResponse{}, err
	}

	s.log.Info("point registered", "id", point.ID, "uf", point.UF, "city", point.City, "items", len(itemIDs))
	if s.bus != nil {
		s.bus.Publish(ctx, events.PointRegistered{
			BaseEvent: events.NewBaseEvent(),
			PointID:   point.ID,
			Name:      point.Name,
			Email:     point.Email,
			UF:        point.UF,
			City:      point.City,
			ItemIDs:   idStrings(itemIDs),
		})
	}

	return s.toResponse(point, indexItems(items)), nil
}

// normalizeCreateRequest cleans user input so validation sees the values
// that will be stored. Unparseable phone numbers stay as typed and fail br_phone.
func normalizeCreateRequest(req transport.CreatePointRequest) transport.CreatePointRequest {
	req.Name = sanitize.Text(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.WhatsApp = phone.NormalizeE164(req.WhatsApp)
	req.UF = strings.ToUpper(strings.TrimSpace(req.UF))
	req.City = sanitize.Text(req.City)
	if len(req.Items) > 0 {
		items := make([]string, 0, len(req.Items))
		for _, id := range req.Items {
			items = append(items, strings.TrimSpace(id))
		}
		req.Items = items
	}
	return req
}

// GetPoint returns one point with its items.
func (s *Service) GetPoint(ctx context.Context, id uuid.UUID) (transport.PointResponse, error) {
	point, err := s.repo.GetPoint(ctx, id)
	if err != nil {
		return transport.PointResponse{}, err
	}
	items, err := s.items.GetItemsByIDs(ctx, point.ItemIDs)
	if err != nil {
		return transport.PointResponse{}, err
	}
	return s.toResponse(point, indexItems(items)), nil
}

// ListPoints returns the points matching the query, newest first.
func (s *Service) ListPoints(ctx context.Context, query transport.ListPointsQuery) ([]transport.PointResponse, error) {
	filter := repository.ListFilter{
		UF:   strings.ToUpper(strings.TrimSpace(query.UF)),
		City: strings.TrimSpace(query.City),
	}
	if strings.TrimSpace(query.Items) != "" {
		ids, err := parseItemIDs(strings.Split(query.Items, ","))
		if err != nil {
			return nil, err
		}
		filter.ItemIDs = ids
	}

	points, err := s.repo.ListPoints(ctx, filter)
	if err != nil {
		s.log.DatabaseError("list points", err)
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{})
	var allIDs []uuid.UUID
	for _, p := range points {
		for _, id := range p.ItemIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				allIDs = append(allIDs, id)
			}
		}
	}
	items := []transport.PointItem{}
	if len(allIDs) > 0 {
		items, err = s.items.GetItemsByIDs(ctx, allIDs)
		if err != nil {
			return nil, err
		}
	}
	byID := indexItems(items)

	out := make([]transport.PointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, s.toResponse(p, byID))
	}
	return out, nil
}

// AttachImage stores a photo for the point. GPS coordinates found in the
// photo's EXIF data are returned as ExifPosition.
func (s *Service) AttachImage(ctx context.Context, id uuid.UUID, upload ImageUpload) (transport.ImageResponse, error) {
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(upload.ContentType, ";", 2)[0]))
	if contentType != "image/jpeg" && contentType != "image/png" {
		return transport.ImageResponse{}, apperr.Validation("image must be jpeg or png")
	}
	if err := s.storage.ValidateFileSize(upload.Size); err != nil {
		return transport.ImageResponse{}, apperr.Validation(err.Error())
	}
	if _, err := s.repo.GetPoint(ctx, id); err != nil {
		return transport.ImageResponse{}, err
	}

	data, err := io.ReadAll(io.LimitReader(upload.Reader, s.storage.GetMaxFileSize()+1))
	if err != nil {
		return transport.ImageResponse{}, apperr.BadRequest("failed to read image")
	}
	if err := s.storage.ValidateFileSize(int64(len(data))); err != nil {
		return transport.ImageResponse{}, apperr.Validation(err.Error())
	}

	key, err := s.storage.UploadFile(ctx, s.bucket, imageFolder+"/"+id.String(), upload.FileName, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return transport.ImageResponse{}, apperr.Wrap(apperr.KindInternal, "failed to store image", err)
	}

	previous, err := s.repo.SetImageKey(ctx, id, key)
	if err != nil {
		if cleanupErr := s.storage.DeleteObject(ctx, s.bucket, key); cleanupErr != nil {
			s.log.Warn("failed to remove orphaned image", "key", key, "error", cleanupErr)
		}
		return transport.ImageResponse{}, err
	}
	if previous != nil && *previous != "" && *previous != key {
		if err := s.storage.DeleteObject(ctx, s.bucket, *previous); err != nil {
			s.log.Warn("failed to remove replaced image", "key", *previous, "error", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.PointImageAttached{BaseEvent: events.NewBaseEvent(), PointID: id, ImageKey: key})
	}

	resp := transport.ImageResponse{ImageURL: s.storage.PublicURL(s.bucket, key)}
	if contentType == "image/jpeg" {
		resp.ExifPosition = exifPosition(data)
	}
	return resp, nil
}

// QRCode renders a PNG QR code linking to the point's public page.
func (s *Service) QRCode(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if _, err := s.repo.GetPoint(ctx, id); err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.PublicURL(id), qrcode.Medium, qrCodeSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to render qr code", err)
	}
	return png, nil
}

// PublicURL is the page a QR code points to.
func (s *Service) PublicURL(id uuid.UUID) string {
	return fmt.Sprintf("%s/points/%s", s.appBaseURL, id)
}

func (s *Service) toResponse(point repository.Point, items map[uuid.UUID]transport.PointItem) transport.PointResponse {
	resp := transport.PointResponse{
		ID:        point.ID.String(),
		Name:      point.Name,
		Email:     point.Email,
		WhatsApp:  point.WhatsApp,
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
		UF:        point.UF,
		City:      point.City,
		Items:     make([]transport.PointItem, 0, len(point.ItemIDs)),
		CreatedAt: point.CreatedAt,
	}
	if point.ImageKey != nil && *point.ImageKey != "" {
		resp.ImageURL = s.storage.PublicURL(s.bucket, *point.ImageKey)
	}
	for _, id := range point.ItemIDs {
		if item, ok := items[id]; ok {
			resp.Items = append(resp.Items, item)
		}
	}
	return resp
}

func exifPosition(data []byte) *transport.Position {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	lat, lng, err := x.LatLong()
	if err != nil {
		return nil
	}
	return &transport.Position{Lat: lat, Lng: lng}
}

func parseItemIDs(raw []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, apperr.Validation("invalid item id").WithDetails(map[string]string{"items": value})
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// catalogOrder reorders ids to match items, which the catalog returns in its
// listing order. IDs missing from items keep their relative order at the end.
func catalogOrder(ids []uuid.UUID, items []transport.PointItem) []uuid.UUID {
	requested := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		requested[id] = struct{}{}
	}
	ordered := make([]uuid.UUID, 0, len(ids))
	placed := make(map[uuid.UUID]struct{}, len(ids))
	for _, item := range items {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			continue
		}
		if _, ok := requested[id]; !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		ordered = append(ordered, id)
	}
	for _, id := range ids {
		if _, ok := placed[id]; !ok {
			ordered = append(ordered, id)
		}
	}
	return ordered
}

func indexItems(items []transport.PointItem) map[uuid.UUID]transport.PointItem {
	byID := make(map[uuid.UUID]transport.PointItem, len(items))
	for _, item := range items {
		if id, err := uuid.Parse(item.ID); err == nil {
			byID[id] = item
		}
	}
	return byID
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
