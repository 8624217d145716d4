package catalog

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"storefront/internal/adapter"
	"storefront/internal/model"
)

// Sort orders a product listing.
type Sort string

const (
	SortFeatured  Sort = "featured" // backend order
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
	SortName      Sort = "name"
)

// ParseSort maps a query parameter to a Sort, defaulting to SortFeatured.
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case "", SortFeatured:
		return SortFeatured, nil
	case SortPriceAsc, SortPriceDesc, SortName:
		return Sort(s), nil
	default:
		return "", model.NewValidationError("sort", fmt.Sprintf("unknown sort %q", s))
	}
}

// Query filters and orders a product listing.
type Query struct {
	Search     string // Case-insensitive match on name or description
	Sort       Sort
	Collection string // Collection handle; ignored in demo mode
	Limit      int    // Default 20
}

// Service resolves catalog reads against the backend or the demo list.
type Service struct {
	backend adapter.Catalog
	logger  *slog.Logger
}

// NewService creates a catalog service. A nil or unconfigured backend puts
// the service in demo mode.
func NewService(backend adapter.Catalog, logger *slog.Logger) *Service {
	return &Service{backend: backend, logger: logger}
}

// DemoMode reports whether products come from the demo list.
func (s *Service) DemoMode() bool {
	return s.backend == nil || !s.backend.Configured()
}

// Products lists products matching q. Backend failures are returned; demo
// mode is silent.
func (s *Service) Products(ctx context.Context, q Query) ([]model.Product, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	var products []model.Product
	if s.DemoMode() {
		products = Demo()
	} else {
		var err error
		if q.Collection != "" {
			products, err = s.backend.CollectionProducts(ctx, q.Collection, limit)
		} else {
			products, err = s.backend.ListProducts(ctx, limit)
		}
		if err != nil {
			s.logger.Error("catalog listing failed", "collection", q.Collection, "error", err)
			return nil, err
		}
	}

	products = filter(products, q.Search)
	sortProducts(products, q.Sort)
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

// Product returns one product by handle. Demo mode also matches IDs.
func (s *Service) Product(ctx context.Context, handle string) (*model.Product, error) {
	if s.DemoMode() {
		p, ok := FindDemo(handle)
		if !ok {
			return nil, model.NewNotFoundError("product")
		}
		return &p, nil
	}

	p, err := s.backend.GetProduct(ctx, handle)
	if err != nil {
		s.logger.Error("product lookup failed", "handle", handle, "error", err)
		return nil, err
	}
	if p == nil {
		return nil, model.NewNotFoundError("product")
	}
	return p, nil
}

// Collections lists collections. Demo mode has none.
func (s *Service) Collections(ctx context.Context, limit int) ([]model.Collection, error) {
	if s.DemoMode() {
		return []model.Collection{}, nil
	}
	collections, err := s.backend.ListCollections(ctx, limit)
	if err != nil {
		s.logger.Error("collection listing failed", "error", err)
		return nil, err
	}
	return collections, nil
}

func filter(products []model.Product, search string) []model.Product {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return products
	}
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out
}

func sortProducts(products []model.Product, by Sort) {
	switch by {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b model.Product) int { return cmp.Compare(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b model.Product) int { return cmp.Compare(b.Price, a.Price) })
	case SortName:
		slices.SortStableFunc(products, func(a, b model.Product) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	}
}
