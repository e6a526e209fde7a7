package app

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"apicatalog/internal/logging"
	"apicatalog/internal/metrics"
	"apicatalog/internal/model"
	"apicatalog/internal/repository"
)

var (
	ErrAPINotFound = errors.New("api not found")
	ErrInvalidURL  = errors.New("url must be absolute http or https")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// ViewRecorder hands view increments off to an asynchronous consumer.
type ViewRecorder interface {
	RecordView(ctx context.Context, apiID uint) error
}

type CatalogService struct {
	apiRepo  *repository.APIRepository
	userRepo *repository.UserRepository
	views    ViewRecorder
}

type CreateAPIInput struct {
	UserID           uint
	Name             string
	Country          string
	Description      string
	MainURL          string
	DocumentationURL string
}

type APIPage struct {
	Items []model.APIEntry `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int64            `json:"total"`
	Pages int              `json:"pages"`
}

// NewCatalogService builds the service. views may be nil, in which case view
// increments are applied inline.
func NewCatalogService(apiRepo *repository.APIRepository, userRepo *repository.UserRepository, views ViewRecorder) *CatalogService {
	return &CatalogService{
		apiRepo:  apiRepo,
		userRepo: userRepo,
		views:    views,
	}
}

func (s *CatalogService) Create(ctx context.Context, input CreateAPIInput) (*model.APIEntry, error) {
	name := strings.TrimSpace(input.Name)
	country := strings.TrimSpace(input.Country)
	description := strings.TrimSpace(input.Description)
	mainURL := strings.TrimSpace(input.MainURL)
	docURL := strings.TrimSpace(input.DocumentationURL)

	if input.UserID == 0 || name == "" || country == "" || description == "" || mainURL == "" {
		return nil, ErrInvalidInput
	}
	if !validURL(mainURL) || (docURL != "" && !validURL(docURL)) {
		return nil, ErrInvalidURL
	}

	owner, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	entry := &model.APIEntry{
		Name:             name,
		Description:      description,
		MainURL:          mainURL,
		DocumentationURL: docURL,
		Country:          country,
		UserID:           owner.ID,
	}
	if err := s.apiRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Uint("api_id", entry.ID).Uint("user_id", owner.ID).Msg("api created")
	return entry, nil
}

func (s *CatalogService) List(ctx context.Context, page, limit int) (*APIPage, error) {
	page, limit = normalizePage(page, limit)

	total, err := s.apiRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.apiRepo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return &APIPage{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pageCount(total, limit),
	}, nil
}

// Pages reports how many pages of the given size the catalog spans.
func (s *CatalogService) Pages(ctx context.Context, limit int) (int, int64, error) {
	_, limit = normalizePage(1, limit)
	total, err := s.apiRepo.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	return pageCount(total, limit), total, nil
}

func (s *CatalogService) ListByIDs(ctx context.Context, ids []uint) ([]model.APIEntry, error) {
	return s.apiRepo.ListByIDs(ctx, ids)
}

// RecordView counts one view of the entry. When a queue is configured the
// increment is published; a publish failure falls back to an inline update.
func (s *CatalogService) RecordView(ctx context.Context, apiID uint) error {
	if apiID == 0 {
		return ErrInvalidInput
	}
	entry, err := s.apiRepo.GetByID(ctx, apiID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrAPINotFound
	}

	if s.views != nil {
		err := s.views.RecordView(ctx, apiID)
		if err == nil {
			metrics.ViewsRecorded.WithLabelValues("queued").Inc()
			return nil
		}
		logging.Ctx(ctx).Warn().Err(err).Uint("api_id", apiID).Msg("queue view failed, applying inline")
	}
	if err := s.ApplyView(ctx, apiID); err != nil {
		return err
	}
	metrics.ViewsRecorded.WithLabelValues("inline").Inc()
	return nil
}

// ApplyView performs the increment itself; the view worker calls it for every
// queued event.
func (s *CatalogService) ApplyView(ctx context.Context, apiID uint) error {
	ok, err := s.apiRepo.IncrementViews(ctx, apiID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAPINotFound
	}
	return nil
}

func (s *CatalogService) Delete(ctx context.Context, userID, apiID uint) error {
	if userID == 0 || apiID == 0 {
		return ErrInvalidInput
	}
	entry, err := s.apiRepo.GetByID(ctx, apiID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrAPINotFound
	}
	if entry.UserID != userID {
		return ErrForbidden
	}
	if err := s.apiRepo.Delete(ctx, apiID); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Uint("api_id", apiID).Uint("user_id", userID).Msg("api deleted")
	return nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func pageCount(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
