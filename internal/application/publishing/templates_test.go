package publishing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propman/backend/internal/domain/syndication"
)

func newTemplateService(t *testing.T) *Service {
	t.Helper()
	h := newTestOrchestrator(t)
	return newTestService(t, h, defaultServiceConfig())
}

func TestService_GetTemplates_SeedsDefaults(t *testing.T) {
	svc := newTemplateService(t)
	ctx := context.Background()

	templates, err := svc.GetTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	for _, tmpl := range templates {
		assert.True(t, tmpl.System)
	}

	// A second read returns the same seeded set, not a fresh one
	again, err := svc.GetTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.ElementsMatch(t,
		[]string{templates[0].ID.String(), templates[1].ID.String()},
		[]string{again[0].ID.String(), again[1].ID.String()})
}

func TestService_CreateTemplate(t *testing.T) {
	svc := newTemplateService(t)
	ctx := context.Background()

	created, err := svc.CreateTemplate(ctx, syndication.PublishingTemplate{
		Name:      "luxury units",
		Platforms: []syndication.Platform{syndication.PlatformZillow},
		Settings:  syndication.TemplateSettings{MaxRetries: 1, RetryFailures: true},
		// A caller cannot smuggle in the system flag
		System: true,
	})
	require.NoError(t, err)
	assert.False(t, created.System)
	assert.NotZero(t, created.ID)

	fetched, err := svc.GetTemplate(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "luxury units", fetched.Name)
}

func TestService_CreateTemplate_Invalid(t *testing.T) {
	svc := newTemplateService(t)
	ctx := context.Background()

	_, err := svc.CreateTemplate(ctx, syndication.PublishingTemplate{Name: ""})
	assert.ErrorIs(t, err, syndication.ErrTemplateNameEmpty)

	_, err = svc.CreateTemplate(ctx, syndication.PublishingTemplate{
		Name:      "bad platform",
		Platforms: []syndication.Platform{"myspace"},
	})
	assert.ErrorIs(t, err, syndication.ErrPlatformUnsupported)
}

func TestService_UpdateTemplate(t *testing.T) {
	svc := newTemplateService(t)
	ctx := context.Background()

	created, err := svc.CreateTemplate(ctx, syndication.PublishingTemplate{
		Name:      "draft",
		Platforms: []syndication.Platform{syndication.PlatformZumper},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTemplate(ctx, created.ID.String(), syndication.PublishingTemplate{
		Name:      "final",
		Platforms: []syndication.Platform{syndication.PlatformZumper, syndication.PlatformZillow},
	})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Name)
	assert.Equal(t, created.ID, updated.ID, "id survives the update")
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestService_UpdateTemplate_SystemProtected(t *testing.T) {
	svc := newTemplateService(t)
	ctx := context.Background()

	templates, err := svc.GetTemplates(ctx)
	require.NoError(t, err)

	_, err = svc.UpdateTemplate(ctx, templates[0].ID.String(), syndication.PublishingTemplate{
		Name: "hijacked",
	})
	assert.ErrorIs(t, err, syndication.ErrTemplateSystem)
}

func TestService_DeleteTemplate(t *testing.T) {
	svc := newTemplateService(t)
	ctx := context.Background()

	created, err := svc.CreateTemplate(ctx, syndication.PublishingTemplate{Name: "disposable"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTemplate(ctx, created.ID.String()))
	_, err = svc.GetTemplate(ctx, created.ID.String())
	assert.ErrorIs(t, err, syndication.ErrTemplateNotFound)

	// System templates cannot be removed
	templates, err := svc.GetTemplates(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteTemplate(ctx, templates[0].ID.String()), syndication.ErrTemplateSystem)

	assert.ErrorIs(t, svc.DeleteTemplate(ctx, "no-such-id"), syndication.ErrTemplateNotFound)
}
