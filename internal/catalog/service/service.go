package service

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"ecoleta_backend/internal/adapters/storage"
	"ecoleta_backend/internal/catalog/repository"
	"ecoleta_backend/internal/catalog/transport"
	"ecoleta_backend/internal/events"
	"ecoleta_backend/platform/apperr"
	"ecoleta_backend/platform/logger"
	"ecoleta_backend/platform/sanitize"
)

// Service provides business logic for the item catalog.
type Service struct {
	repo    repository.Repository
	storage storage.StorageService
	bucket  string
	bus     events.Bus
	log     *logger.Logger
}

// New creates a new catalog service. Icons live in bucket.
func New(repo repository.Repository, storageSvc storage.StorageService, bucket string, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, storage: storageSvc, bucket: bucket, bus: bus, log: log}
}

// IconUpload describes an icon file received from the admin endpoint.
type IconUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ListItems returns every item in creation order with its public icon URL.
func (s *Service) ListItems(ctx context.Context) ([]transport.ItemResponse, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		s.log.DatabaseError("list items", err)
		return nil, err
	}
	return s.toItemResponses(items), nil
}

// GetItemsByIDs resolves ids to items. Unknown IDs are reported as a
// validation error listing them.
func (s *Service) GetItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]transport.ItemResponse, error) {
	items, err := s.repo.GetItemsByIDs(ctx, ids)
	if err != nil {
		s.log.DatabaseError("get items by ids", err)
		return nil, err
	}

	found := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		found[item.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("unknown items").WithDetails(map[string][]string{"items": missing})
	}

	return s.toItemResponses(items), nil
}

// CreateItem uploads the icon and stores a new item.
func (s *Service) CreateItem(ctx context.Context, req transport.CreateItemRequest, icon IconUpload) (transport.ItemResponse, error) {
	title := sanitize.Text(req.Title)
	if title == "" {
		return transport.ItemResponse{}, apperr.Validation("title is required")
	}
	if err := s.storage.ValidateContentType(icon.ContentType); err != nil {
		return transport.ItemResponse{}, apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(icon.Size); err != nil {
		return transport.ItemResponse{}, apperr.Validation(err.Error())
	}

	key, err := s.storage.UploadFile(ctx, s.bucket, "items", icon.FileName, icon.ContentType, icon.Reader, icon.Size)
	if err != nil {
		return transport.ItemResponse{}, apperr.Wrap(apperr.KindInternal, "failed to store icon", err)
	}

	item, err := s.repo.CreateItem(ctx, repository.CreateItemParams{Title: title, ImageKey: key})
	if err != nil {
		if cleanupErr := s.storage.DeleteObject(ctx, s.bucket, key); cleanupErr != nil {
			s.log.Warn("failed to remove orphaned icon", "key", key, "error", cleanupErr)
		}
		return transport.ItemResponse{}, err
	}

	s.log.Info("item created", "id", item.ID, "title", item.Title)
	if s.bus != nil {
		s.bus.Publish(ctx, events.ItemCreated{BaseEvent: events.NewBaseEvent(), ItemID: item.ID, Title: item.Title})
	}
	return s.toItemResponse(item), nil
}

// SeedDefaults inserts the default item categories that are missing.
func (s *Service) SeedDefaults(ctx context.Context) error {
	defaults, err := LoadDefaultItems()
	if err != nil {
		return err
	}

	params := make([]repository.CreateItemParams, 0, len(defaults))
	for _, d := range defaults {
		params = append(params, repository.CreateItemParams{
			Title:    strings.TrimSpace(d.Title),
			ImageKey: strings.TrimSpace(d.Image),
		})
	}

	inserted, err := s.repo.InsertMissing(ctx, params)
	if err != nil {
		s.log.DatabaseError("seed default items", err)
		return err
	}
	s.log.Info("default items seeded", "inserted", inserted, "total", len(params))
	return nil
}

func (s *Service) toItemResponses(items []repository.Item) []transport.ItemResponse {
	out := make([]transport.ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, s.toItemResponse(item))
	}
	return out
}

func (s *Service) toItemResponse(item repository.Item) transport.ItemResponse {
	return transport.ItemResponse{
		ID:       item.ID.String(),
		Title:    item.Title,
		ImageURL: s.storage.PublicURL(s.bucket, item.ImageKey),
	}
}
