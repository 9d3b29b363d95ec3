package catalog

import (
	"context"
	"fmt"

	"github.com/clearsight/pos-engine/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Service collapses concurrent identical lookups with singleflight so a busy
// sale screen hammering the same product resolves to one query.
type Service struct {
	repo Reader
	sfg  singleflight.Group
}

func NewService(repo Reader) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do("product:"+id, func() (interface{}, error) {
		return s.repo.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (s *Service) ListProducts(ctx context.Context, search, category string) ([]*domain.Product, error) {
	key := fmt.Sprintf("list:%s:%s", search, category)
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		return s.repo.ListProducts(ctx, search, category)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Product), nil
}
