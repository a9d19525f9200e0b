package groups

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"mediagate/internal/storage"
)

var (
	ErrInvalidGroup = errors.New("invalid group")
	ErrNotFound     = errors.New("group not found")
	ErrDuplicate    = errors.New("group already exists")
)

// CreateParams carries the client-supplied fields for a new group. Color is
// optional; an empty one is derived from the name.
type CreateParams struct {
	Name  string `validate:"required,min=1,max=120"`
	Color string `validate:"omitempty,hexcolor"`
}

// UpdateParams mirrors CreateParams for existing groups.
type UpdateParams struct {
	Name  string `validate:"required,min=1,max=120"`
	Color string `validate:"omitempty,hexcolor"`
}

// Service owns folder-group lifecycle: validation, slug derivation, color
// assignment and persistence.
type Service struct {
	store    *storage.SQLiteStorage
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(store *storage.SQLiteStorage, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *Service) List() ([]storage.FolderGroup, error) {
	return s.store.ListGroups()
}

func (s *Service) Get(id string) (*storage.FolderGroup, error) {
	group, err := s.store.GetGroup(id)
	if err != nil {
		return nil, fmt.Errorf("loading group %s: %w", id, err)
	}
	if group == nil {
		return nil, ErrNotFound
	}
	return group, nil
}

func (s *Service) Create(params CreateParams) (*storage.FolderGroup, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGroup, err)
	}

	groupSlug := slug.Make(params.Name)
	existing, err := s.store.GetGroupBySlug(groupSlug)
	if err != nil {
		return nil, fmt.Errorf("checking slug %s: %w", groupSlug, err)
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	color := params.Color
	if color == "" {
		color = ColorFor(params.Name)
	}

	now := time.Now()
	group := &storage.FolderGroup{
		ID:        uuid.New().String(),
		Name:      params.Name,
		Slug:      groupSlug,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateGroup(group); err != nil {
		return nil, fmt.Errorf("creating group %s: %w", group.Name, err)
	}

	s.logger.Info().Str("id", group.ID).Str("name", group.Name).Msg("created folder group")
	return group, nil
}

func (s *Service) Update(id string, params UpdateParams) (*storage.FolderGroup, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGroup, err)
	}

	group, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	groupSlug := slug.Make(params.Name)
	existing, err := s.store.GetGroupBySlug(groupSlug)
	if err != nil {
		return nil, fmt.Errorf("checking slug %s: %w", groupSlug, err)
	}
	if existing != nil && existing.ID != id {
		return nil, ErrDuplicate
	}

	group.Name = params.Name
	group.Slug = groupSlug
	if params.Color != "" {
		group.Color = params.Color
	}
	group.UpdatedAt = time.Now()

	if err := s.store.UpdateGroup(group); err != nil {
		return nil, fmt.Errorf("updating group %s: %w", id, err)
	}

	return group, nil
}

func (s *Service) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	if err := s.store.DeleteGroup(id); err != nil {
		return fmt.Errorf("deleting group %s: %w", id, err)
	}

	s.logger.Info().Str("id", id).Msg("deleted folder group")
	return nil
}
