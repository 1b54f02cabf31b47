package services

import (
	"context"
	"log/slog"

	"github.com/apvaldes/healthcenter/internal/auth"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/apvaldes/healthcenter/pkg/cache"
)

// Cache keys for the published-content read paths.
const (
	cacheKeyAboutPublished = "content:about:published"
	cacheKeyHomePages      = "content:home"
	cacheKeyContents       = "content:entries"
	cacheKeyPortfolio      = "content:portfolio"
	cacheKeyCategories     = "content:portfolio:categories"
)

type AboutRepository interface {
	GetByID(ctx context.Context, id string) (*models.About, error)
	List(ctx context.Context, publishedOnly bool) ([]*models.About, error)
	Create(ctx context.Context, a *models.About) (*models.About, error)
	Update(ctx context.Context, id string, a *models.About) (*models.About, error)
	Delete(ctx context.Context, id string) error
}

type HomePageRepository interface {
	GetByID(ctx context.Context, id string) (*models.HomePage, error)
	List(ctx context.Context) ([]*models.HomePage, error)
	Create(ctx context.Context, h *models.HomePage) (*models.HomePage, error)
	Update(ctx context.Context, id string, h *models.HomePage) (*models.HomePage, error)
	Delete(ctx context.Context, id string) error
}

type ContentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Content, error)
	List(ctx context.Context) ([]*models.Content, error)
	Create(ctx context.Context, c *models.Content) (*models.Content, error)
	Update(ctx context.Context, id string, c *models.Content) (*models.Content, error)
	Delete(ctx context.Context, id string) error
}

type PortfolioRepository interface {
	GetByID(ctx context.Context, id string) (*models.Portfolio, error)
	List(ctx context.Context) ([]*models.Portfolio, error)
	Create(ctx context.Context, p *models.Portfolio) (*models.Portfolio, error)
	Update(ctx context.Context, id string, p *models.Portfolio) (*models.Portfolio, error)
	Delete(ctx context.Context, id string) error
}

type PortfolioCategoryRepository interface {
	GetByID(ctx context.Context, id string) (*models.PortfolioCategory, error)
	List(ctx context.Context) ([]*models.PortfolioCategory, error)
	Create(ctx context.Context, c *models.PortfolioCategory) (*models.PortfolioCategory, error)
	Delete(ctx context.Context, id string) error
}

// ContentService owns all CMS reads and writes. Every write passes the single
// authorization predicate before touching storage; published reads go through
// the cache when one is configured.
type ContentService struct {
	about      AboutRepository
	home       HomePageRepository
	contents   ContentRepository
	portfolio  PortfolioRepository
	categories PortfolioCategoryRepository
	cache      *cache.Cache
	logger     *slog.Logger
}

func NewContentService(
	about AboutRepository,
	home HomePageRepository,
	contents ContentRepository,
	portfolio PortfolioRepository,
	categories PortfolioCategoryRepository,
	contentCache *cache.Cache,
	logger *slog.Logger,
) *ContentService {
	return &ContentService{
		about:      about,
		home:       home,
		contents:   contents,
		portfolio:  portfolio,
		categories: categories,
		cache:      contentCache,
		logger:     logger,
	}
}

// authorize gates every CMS write on the shared predicate.
func (s *ContentService) authorize(actor *models.User) error {
	if !auth.CanManage(actor) {
		return models.ErrForbidden
	}
	return nil
}

// About

// ListAbout returns all entries for managers and only published entries for
// everyone else. The anonymous view is the cached one.
func (s *ContentService) ListAbout(ctx context.Context, actor *models.User) ([]*models.About, error) {
	if auth.CanManage(actor) {
		return s.about.List(ctx, false)
	}

	var cached []*models.About
	if s.cache.Get(ctx, cacheKeyAboutPublished, &cached) {
		return cached, nil
	}

	entries, err := s.about.List(ctx, true)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKeyAboutPublished, entries)
	return entries, nil
}

// GetAbout hides unpublished entries from non-managers as if they did not
// exist.
func (s *ContentService) GetAbout(ctx context.Context, actor *models.User, id string) (*models.About, error) {
	entry, err := s.about.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entry.Active && !auth.CanManage(actor) {
		return nil, models.ErrNotFound
	}
	return entry, nil
}

func (s *ContentService) CreateAbout(ctx context.Context, actor *models.User, a *models.About) (*models.About, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	created, err := s.about.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKeyAboutPublished)
	return created, nil
}

func (s *ContentService) UpdateAbout(ctx context.Context, actor *models.User, id string, a *models.About) (*models.About, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	updated, err := s.about.Update(ctx, id, a)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKeyAboutPublished)
	return updated, nil
}

func (s *ContentService) DeleteAbout(ctx context.Context, actor *models.User, id string) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	if err := s.about.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cacheKeyAboutPublished)
	return nil
}

// Home page

func (s *ContentService) ListHomePages(ctx context.Context) ([]*models.HomePage, error) {
	var cached []*models.HomePage
	if s.cache.Get(ctx, cacheKeyHomePages, &cached) {
		return cached, nil
	}

	pages, err := s.home.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKeyHomePages, pages)
	return pages, nil
}

func (s *ContentService) CreateHomePage(ctx context.Context, actor *models.User, h *models.HomePage) (*models.HomePage, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	created, err := s.home.Create(ctx, h)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKeyHomePages)
	return created, nil
}

func (s *ContentService) UpdateHomePage(ctx context.Context, actor *models.User, id string, h *models.HomePage) (*models.HomePage, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	updated, err := s.home.Update(ctx, id, h)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKeyHomePages)
	return updated, nil
}

func (s *ContentService) DeleteHomePage(ctx context.Context, actor *models.User, id string) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	if err := s.home.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cacheKeyHomePages)
	return nil
}

// Content entries

func (s *ContentService) ListContents(ctx context.Context) ([]*models.Content, error) {
	var cached []*models.Content
	if s.cache.Get(ctx, cacheKeyContents, &cached) {
		return cached, nil
	}

	contents, err := s.contents.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKeyContents, contents)
	return contents, nil
}

func (s *ContentService) GetContent(ctx context.Context, id string) (*models.Content, error) {
	return s.contents.GetByID(ctx, id)
}

func (s *ContentService) CreateContent(ctx context.Context, actor *models.User, c *models.Content) (*models.Content, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	created, err := s.contents.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKeyContents)
	return created, nil
}

func (s *ContentService) UpdateContent(ctx context.Context, actor *models.User, id string, c *models.Content) (*models.Content, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	updated, err := s.contents.Update(ctx, id, c)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKeyContents)
	return updated, nil
}

func (s *ContentService) DeleteContent(ctx context.Context, actor *models.User, id string) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	if err := s.contents.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cacheKeyContents)
	return nil
}

// Portfolio

func (s *ContentService) ListPortfolio(ctx context.Context) ([]*models.Portfolio, error) {
	var cached []*models.Portfolio
	if s.cache.Get(ctx, cacheKeyPortfolio, &cached) {
		return cached, nil
	}

	entries, err := s.portfolio.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKeyPortfolio, entries)
	return entries, nil
}

func (s *ContentService) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	return s.portfolio.GetByID(ctx, id)
}

func (s *ContentService) CreatePortfolio(ctx context.Context, actor *models.User, p *models.Portfolio) (*models.Portfolio, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	created, err := s.portfolio.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKeyPortfolio)
	return created, nil
}

func (s *ContentService) UpdatePortfolio(ctx context.Context, actor *models.User, id string, p *models.Portfolio) (*models.Portfolio, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	updated, err := s.portfolio.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKeyPortfolio)
	return updated, nil
}

func (s *ContentService) DeletePortfolio(ctx context.Context, actor *models.User, id string) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	if err := s.portfolio.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cacheKeyPortfolio)
	return nil
}

// Portfolio categories

func (s *ContentService) ListCategories(ctx context.Context) ([]*models.PortfolioCategory, error) {
	var cached []*models.PortfolioCategory
	if s.cache.Get(ctx, cacheKeyCategories, &cached) {
		return cached, nil
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKeyCategories, categories)
	return categories, nil
}

func (s *ContentService) CreateCategory(ctx context.Context, actor *models.User, c *models.PortfolioCategory) (*models.PortfolioCategory, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	created, err := s.categories.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKeyCategories)
	return created, nil
}

// DeleteCategory also invalidates the portfolio list: entries referencing the
// category now carry a NULL category id.
func (s *ContentService) DeleteCategory(ctx context.Context, actor *models.User, id string) error {
	if err := s.authorize(actor); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cacheKeyCategories, cacheKeyPortfolio)
	return nil
}
