package apollo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/orgharvest/orgharvest/internal/harvest"
	"github.com/orgharvest/orgharvest/internal/metrics"
	"github.com/orgharvest/orgharvest/internal/storage"
	"github.com/orgharvest/orgharvest/internal/store"
)

// Searcher executes one combination's search against the vendor API,
// persists every discovered organization, and returns the total count. It
// implements harvest.Searcher.
type Searcher struct {
	client     *Client
	orgs       store.OrganizationRepository
	industries store.ReferenceRepository
	keywords   store.ReferenceRepository
	archive    storage.Provider
	pacer      harvest.Pacer
	logger     *zap.Logger
}

// NewSearcher constructs a Searcher. archive may be a NoOpProvider when raw
// payload archiving is disabled.
func NewSearcher(
	client *Client,
	orgs store.OrganizationRepository,
	industries store.ReferenceRepository,
	keywords store.ReferenceRepository,
	archive storage.Provider,
	pacer harvest.Pacer,
	logger *zap.Logger,
) *Searcher {
	return &Searcher{
		client:     client,
		orgs:       orgs,
		industries: industries,
		keywords:   keywords,
		archive:    archive,
		pacer:      pacer,
		logger:     logger,
	}
}

// Search pages through the vendor's results for the combination, upserting
// organizations as it goes, and returns how many records the search surfaced.
// The page loop stops on a short page or when pagination says there is no
// next page.
func (s *Searcher) Search(ctx context.Context, combo store.Combination) (int, error) {
	query := SearchQuery{
		Location:        combo.Location,
		EmployeeRanges:  formatEmployeeRanges(combo.EmployeeRanges),
		IndustryID:      combo.IndustryID,
		SearchSessionID: NewSessionID(),
		RandomSeed:      NewRandomSeed(),
	}

	seen := make(map[string]bool)
	total := 0
	for page := 1; ; page++ {
		result, err := s.client.Search(ctx, query, page)
		if err != nil {
			return 0, fmt.Errorf("search page %d: %w", page, err)
		}
		s.logger.Debug("search page fetched",
			zap.String("location", combo.Location),
			zap.String("industry", combo.IndustryName),
			zap.Int("page", page),
			zap.Int("organizations", len(result.Organizations)))

		s.archivePage(ctx, combo, page, result.Raw)
		total += len(result.Organizations)

		if err := s.persistPage(ctx, result.Organizations, seen); err != nil {
			return 0, err
		}

		if len(result.Organizations) < PerPage {
			break
		}
		if result.HasNextPage != nil && !*result.HasNextPage {
			break
		}
		if err := s.pacer.Pause(ctx); err != nil {
			return 0, fmt.Errorf("inter-page pause: %w", err)
		}
	}
	return total, nil
}

// persistPage loads details for the page's unseen ids and upserts the merged
// records, lazily ensuring their industry and keyword names.
func (s *Searcher) persistPage(ctx context.Context, orgs []SearchOrganization, seen map[string]bool) error {
	byID := make(map[string]SearchOrganization, len(orgs))
	ids := make([]string, 0, len(orgs))
	for _, org := range orgs {
		if org.ID == "" || seen[org.ID] {
			continue
		}
		seen[org.ID] = true
		byID[org.ID] = org
		ids = append(ids, org.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	details, err := s.client.LoadDetails(ctx, ids)
	if err != nil {
		return fmt.Errorf("load details: %w", err)
	}
	for _, detail := range details {
		search, ok := byID[detail.ID]
		if !ok {
			continue
		}
		entity := mergeOrganization(search, detail)
		if err := s.industries.EnsureAll(ctx, entity.Industries); err != nil {
			return fmt.Errorf("ensure industries: %w", err)
		}
		if err := s.keywords.EnsureAll(ctx, entity.Keywords); err != nil {
			return fmt.Errorf("ensure keywords: %w", err)
		}
		if err := s.orgs.Upsert(ctx, entity); err != nil {
			return fmt.Errorf("upsert organization %s: %w", entity.ApolloID, err)
		}
		metrics.ObserveOrganizationUpsert()
	}
	return nil
}

// archivePage saves the raw payload; archiving is best-effort and never
// fails the search.
func (s *Searcher) archivePage(ctx context.Context, combo store.Combination, page int, raw []byte) {
	name := fmt.Sprintf("%s/%s/page-%04d.json",
		sanitizeSegment(combo.Location), sanitizeSegment(combo.IndustryName), page)
	if _, err := s.archive.Save(ctx, name, raw); err != nil {
		s.logger.Warn("raw payload archive failed",
			zap.String("location", combo.Location),
			zap.String("industry", combo.IndustryName),
			zap.Int("page", page),
			zap.Error(err))
	}
}

func sanitizeSegment(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ' || r == ',' || r == '/':
			out = append(out, '_')
		}
	}
	return string(out)
}
