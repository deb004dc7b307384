package tag

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"foodgram-api/domain"
	"foodgram-api/entities"
)

type memoryTagRepository struct {
	tags map[string]*entities.Tag
}

func newMemoryTagRepository() *memoryTagRepository {
	return &memoryTagRepository{tags: make(map[string]*entities.Tag)}
}

func (m *memoryTagRepository) GetTags(ctx context.Context) ([]*entities.Tag, error) {
	var result []*entities.Tag
	for _, tag := range m.tags {
		result = append(result, tag)
	}
	return result, nil
}

func (m *memoryTagRepository) GetTagByID(ctx context.Context, id string) (*entities.Tag, error) {
	tag, ok := m.tags[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return tag, nil
}

func (m *memoryTagRepository) GetTagsByIDs(ctx context.Context, ids []string) ([]*entities.Tag, error) {
	var result []*entities.Tag
	for _, id := range ids {
		if tag, ok := m.tags[id]; ok {
			result = append(result, tag)
		}
	}
	return result, nil
}

func (m *memoryTagRepository) ColorExists(ctx context.Context, color string) (bool, error) {
	for _, tag := range m.tags {
		if tag.Color == color {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryTagRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	for _, tag := range m.tags {
		if tag.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryTagRepository) CreateTag(ctx context.Context, tag *entities.Tag) error {
	tag.ID = uuid.New()
	m.tags[tag.ID.String()] = tag
	return nil
}

func TestCreateTag(t *testing.T) {
	svc := NewTagService(newMemoryTagRepository())
	ctx := context.Background()

	res, err := svc.CreateTag(ctx, domain.CreateTagRequest{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"})
	require.NoError(t, err)
	assert.Equal(t, "Breakfast", res.Name)
	assert.Equal(t, "#E26C2D", res.Color)
	assert.NotEmpty(t, res.ID)

	fetched, err := svc.GetTagByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res, fetched)
}

func TestCreateTagColorValidation(t *testing.T) {
	svc := NewTagService(newMemoryTagRepository())
	ctx := context.Background()

	for _, color := range []string{"E26C2D", "#E26C2", "#GGGGGG", "red", "#12345678"} {
		_, err := svc.CreateTag(ctx, domain.CreateTagRequest{Name: "t", Color: color, Slug: "t"})
		assert.ErrorIs(t, err, domain.ErrInvalidColor, "color %q", color)
	}

	// short form is accepted
	_, err := svc.CreateTag(ctx, domain.CreateTagRequest{Name: "t", Color: "#0F0", Slug: "t"})
	assert.NoError(t, err)
}

func TestCreateTagUniqueness(t *testing.T) {
	svc := NewTagService(newMemoryTagRepository())
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, domain.CreateTagRequest{Name: "Dinner", Color: "#49B64E", Slug: "dinner"})
	require.NoError(t, err)

	_, err = svc.CreateTag(ctx, domain.CreateTagRequest{Name: "Other", Color: "#49B64E", Slug: "other"})
	assert.ErrorIs(t, err, domain.ErrColorNotUnique)

	_, err = svc.CreateTag(ctx, domain.CreateTagRequest{Name: "Other", Color: "#FFFFFF", Slug: "dinner"})
	assert.ErrorIs(t, err, domain.ErrSlugNotUnique)
}

func TestGetTagByIDNotFound(t *testing.T) {
	svc := NewTagService(newMemoryTagRepository())

	_, err := svc.GetTagByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}
