package links

import (
	"context"
	"net/url"

	"github.com/linkdeck/linkdeck/internal/domain/links"
	"github.com/linkdeck/linkdeck/internal/domain/shared"
	"github.com/linkdeck/linkdeck/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TitleFetcher resolves a page title for a URL. Implementations live in the
// infrastructure layer.
type TitleFetcher interface {
	FetchTitle(ctx context.Context, pageURL string) (string, error)
}

// LinkService handles link-related business operations
type LinkService struct {
	repo    links.LinkRepository
	fetcher TitleFetcher
	metrics *telemetry.LinkMetrics
	logger  *zap.Logger
}

// NewLinkService creates a new LinkService
func NewLinkService(repo links.LinkRepository) *LinkService {
	return &LinkService{
		repo:   repo,
		logger: zap.NewNop(),
	}
}

// SetTitleFetcher enables fetching missing titles from the target page.
func (s *LinkService) SetTitleFetcher(fetcher TitleFetcher) {
	s.fetcher = fetcher
}

// SetMetrics wires link business metrics into the service.
func (s *LinkService) SetMetrics(metrics *telemetry.LinkMetrics) {
	s.metrics = metrics
}

// SetLogger replaces the service logger.
func (s *LinkService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create creates a new link. A missing key is derived from the title; a
// missing title is fetched from the target page when a fetcher is configured.
func (s *LinkService) Create(ctx context.Context, req CreateLinkRequest) (*LinkResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "link", "create")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrLinkURL, req.URL)

	title := req.Title
	if title == "" {
		title = s.resolveTitle(ctx, req.URL)
	}

	key := req.Key
	if key == "" {
		var err error
		key, err = s.generateKey(ctx, title)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	} else {
		exists, err := s.repo.ExistsByKey(ctx, key)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if exists {
			err := shared.NewDomainError("ALREADY_EXISTS", "Link with this key already exists")
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	link, err := links.NewLink(key, req.URL, title, req.Description)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.Save(ctx, link); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordLinkCreated(ctx)
	}

	telemetry.AddEvent(span, "link_created", telemetry.SpanAttrLinkKey, link.Key)
	return toLinkResponse(link), nil
}

// Get returns a single link by key
func (s *LinkService) Get(ctx context.Context, key string) (*LinkResponse, error) {
	link, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return toLinkResponse(link), nil
}

// List returns all links in creation order
func (s *LinkService) List(ctx context.Context) ([]*LinkResponse, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*LinkResponse, 0, len(all))
	for _, link := range all {
		responses = append(responses, toLinkResponse(link))
	}
	return responses, nil
}

// Update applies a partial update to a link. Unset fields keep their current
// values.
func (s *LinkService) Update(ctx context.Context, key string, req UpdateLinkRequest) (*LinkResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "link", "update")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrLinkKey, key)

	link, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	targetURL := link.URL
	if req.URL != nil {
		targetURL = *req.URL
	}
	title := link.Title
	if req.Title != nil {
		title = *req.Title
	}
	description := link.Description
	if req.Description != nil {
		description = *req.Description
	}

	if err := link.Update(targetURL, title, description); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.Save(ctx, link); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return toLinkResponse(link), nil
}

// Delete removes a link by key
func (s *LinkService) Delete(ctx context.Context, key string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "link", "delete")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrLinkKey, key)

	if err := s.repo.Delete(ctx, key); err != nil {
		telemetry.RecordError(span, err)
		if s.metrics != nil {
			s.metrics.RecordDeleteFailure(ctx)
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordLinkDeleted(ctx)
	}

	telemetry.AddEvent(span, "link_deleted", telemetry.SpanAttrLinkKey, key)
	return nil
}

// resolveTitle fetches the page title, falling back to the URL host so the
// domain constructor still sees a usable title when fetching fails.
func (s *LinkService) resolveTitle(ctx context.Context, pageURL string) string {
	if s.fetcher != nil {
		title, err := s.fetcher.FetchTitle(ctx, pageURL)
		if err == nil && title != "" {
			return title
		}
		if err != nil {
			s.logger.Debug("title fetch failed",
				zap.String("url", pageURL),
				zap.Error(err))
		}
	}

	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		return u.Host
	}
	return ""
}

// generateKey slugs the title into a key and disambiguates collisions with a
// random suffix.
func (s *LinkService) generateKey(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "link-" + randomKeySuffix(6)
	}

	exists, err := s.repo.ExistsByKey(ctx, base)
	if err != nil {
		return "", err
	}
	if !exists {
		return base, nil
	}

	// Keep room for the suffix within the key length limit.
	const suffixLen = 5
	if len(base) > links.MaxKeyLength-suffixLen-1 {
		base = base[:links.MaxKeyLength-suffixLen-1]
	}
	candidate := base + "-" + randomKeySuffix(suffixLen)

	exists, err = s.repo.ExistsByKey(ctx, candidate)
	if err != nil {
		return "", err
	}
	if exists {
		return "", shared.NewDomainError("ALREADY_EXISTS", "Could not derive a unique key for this link")
	}
	return candidate, nil
}
