package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"donor_registry/internal/common"
	"donor_registry/internal/domain/model"
	"donor_registry/internal/domain/repository"
	"donor_registry/internal/platform/database"
)

// ResourceService applies the list/get/create/update/delete contract to one
// descriptor-defined resource.
type ResourceService struct {
	repo repository.ResourceRepository
	desc model.Descriptor
}

func NewResourceService(repo repository.ResourceRepository) *ResourceService {
	return &ResourceService{repo: repo, desc: repo.Descriptor()}
}

func (s *ResourceService) Descriptor() model.Descriptor {
	return s.desc
}

func (s *ResourceService) List(ctx context.Context) ([]database.Row, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.desc.Table, err)
	}
	return rows, nil
}

// Get returns a one-element slice, or a NotFound error when id does not exist.
func (s *ResourceService) Get(ctx context.Context, id int64) ([]database.Row, error) {
	rows, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", s.desc.Table, id, err)
	}
	if len(rows) == 0 {
		return nil, common.NewError(common.ErrNotFound, s.desc.NotFoundMessage())
	}
	return rows, nil
}

func (s *ResourceService) Create(ctx context.Context, body map[string]json.RawMessage) (int64, error) {
	rec, err := s.decode(body)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", s.desc.Table, err)
	}
	return id, nil
}

func (s *ResourceService) Update(ctx context.Context, id int64, body map[string]json.RawMessage) error {
	rec, err := s.decode(body)
	if err != nil {
		return err
	}
	n, err := s.repo.Update(ctx, id, rec)
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", s.desc.Table, id, err)
	}
	if n == 0 {
		return common.NewError(common.ErrNotFound, s.desc.NotFoundMessage())
	}
	return nil
}

func (s *ResourceService) Delete(ctx context.Context, id int64) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", s.desc.Table, id, err)
	}
	if n == 0 {
		return common.NewError(common.ErrNotFound, s.desc.NotFoundMessage())
	}
	return nil
}

func (s *ResourceService) decode(body map[string]json.RawMessage) (model.Record, error) {
	rec, err := s.desc.Decode(body)
	if err != nil {
		var fe *model.FieldError
		if errors.As(err, &fe) {
			return model.Record{}, common.WrapError(common.ErrBadRequest, fe.Reason, fe)
		}
		return model.Record{}, err
	}
	return rec, nil
}
