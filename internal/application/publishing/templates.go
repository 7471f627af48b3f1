package publishing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/propman/backend/internal/domain/syndication"
)

// Template CRUD. Templates live as one map under a single store key; the
// system templates are seeded on first read and cannot be changed or removed.

// GetTemplates returns all templates, seeding the defaults on first call.
func (s *Service) GetTemplates(ctx context.Context) ([]syndication.PublishingTemplate, error) {
	templates, err := s.loadTemplates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]syndication.PublishingTemplate, 0, len(templates))
	for _, tmpl := range templates {
		out = append(out, tmpl)
	}
	return out, nil
}

// GetTemplate returns one template by id.
func (s *Service) GetTemplate(ctx context.Context, id string) (*syndication.PublishingTemplate, error) {
	templates, err := s.loadTemplates(ctx)
	if err != nil {
		return nil, err
	}
	tmpl, ok := templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", syndication.ErrTemplateNotFound, id)
	}
	return &tmpl, nil
}

// CreateTemplate validates and stores a new template.
func (s *Service) CreateTemplate(ctx context.Context, tmpl syndication.PublishingTemplate) (*syndication.PublishingTemplate, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	templates, err := s.loadTemplates(ctx)
	if err != nil {
		return nil, err
	}
	tmpl.ID = uuid.New()
	tmpl.System = false
	now := s.nowFn()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	templates[tmpl.ID.String()] = tmpl
	if err := s.saveTemplates(ctx, templates); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// UpdateTemplate replaces a user template's contents. System templates are
// immutable.
func (s *Service) UpdateTemplate(ctx context.Context, id string, tmpl syndication.PublishingTemplate) (*syndication.PublishingTemplate, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	templates, err := s.loadTemplates(ctx)
	if err != nil {
		return nil, err
	}
	existing, ok := templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", syndication.ErrTemplateNotFound, id)
	}
	if existing.System {
		return nil, fmt.Errorf("%w: %s", syndication.ErrTemplateSystem, existing.Name)
	}
	tmpl.ID = existing.ID
	tmpl.System = false
	tmpl.CreatedAt = existing.CreatedAt
	tmpl.UpdatedAt = s.nowFn()
	templates[id] = tmpl
	if err := s.saveTemplates(ctx, templates); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// DeleteTemplate removes a user template. System templates are kept.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	templates, err := s.loadTemplates(ctx)
	if err != nil {
		return err
	}
	existing, ok := templates[id]
	if !ok {
		return fmt.Errorf("%w: %s", syndication.ErrTemplateNotFound, id)
	}
	if existing.System {
		return fmt.Errorf("%w: %s", syndication.ErrTemplateSystem, existing.Name)
	}
	delete(templates, id)
	return s.saveTemplates(ctx, templates)
}

func (s *Service) loadTemplates(ctx context.Context) (map[string]syndication.PublishingTemplate, error) {
	templates := make(map[string]syndication.PublishingTemplate)
	found, err := s.store.Get(ctx, syndication.StoreKeyTemplates, &templates)
	if err != nil {
		return nil, err
	}
	if !found || len(templates) == 0 {
		templates = seedTemplates(s.nowFn())
		if err := s.saveTemplates(ctx, templates); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (s *Service) saveTemplates(ctx context.Context, templates map[string]syndication.PublishingTemplate) error {
	return s.store.Set(ctx, syndication.StoreKeyTemplates, templates)
}

func seedTemplates(now time.Time) map[string]syndication.PublishingTemplate {
	templates := make(map[string]syndication.PublishingTemplate)
	for _, tmpl := range syndication.DefaultTemplates(now) {
		templates[tmpl.ID.String()] = tmpl
	}
	return templates
}
