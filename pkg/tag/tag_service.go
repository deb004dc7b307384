package tag

import (
	"context"
	"errors"
	"regexp"

	"gorm.io/gorm"

	"foodgram-api/domain"
	"foodgram-api/entities"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type (
	TagService interface {
		GetTags(ctx context.Context) ([]domain.TagResponse, error)
		GetTagByID(ctx context.Context, id string) (domain.TagResponse, error)
		CreateTag(ctx context.Context, req domain.CreateTagRequest) (domain.TagResponse, error)
	}

	tagService struct {
		tagRepository TagRepository
	}
)

func NewTagService(tagRepository TagRepository) TagService {
	return &tagService{tagRepository: tagRepository}
}

func (s *tagService) GetTags(ctx context.Context) ([]domain.TagResponse, error) {
	tags, err := s.tagRepository.GetTags(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.TagResponse, 0, len(tags))
	for _, tag := range tags {
		result = append(result, toTagResponse(tag))
	}
	return result, nil
}

func (s *tagService) GetTagByID(ctx context.Context, id string) (domain.TagResponse, error) {
	tag, err := s.tagRepository.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TagResponse{}, domain.ErrTagNotFound
		}
		return domain.TagResponse{}, err
	}
	return toTagResponse(tag), nil
}

func (s *tagService) CreateTag(ctx context.Context, req domain.CreateTagRequest) (domain.TagResponse, error) {
	if !hexColorPattern.MatchString(req.Color) {
		return domain.TagResponse{}, domain.ErrInvalidColor
	}

	taken, err := s.tagRepository.ColorExists(ctx, req.Color)
	if err != nil {
		return domain.TagResponse{}, err
	}
	if taken {
		return domain.TagResponse{}, domain.ErrColorNotUnique
	}

	taken, err = s.tagRepository.SlugExists(ctx, req.Slug)
	if err != nil {
		return domain.TagResponse{}, err
	}
	if taken {
		return domain.TagResponse{}, domain.ErrSlugNotUnique
	}

	tag := entities.Tag{
		Name:  req.Name,
		Color: req.Color,
		Slug:  req.Slug,
	}
	if err := s.tagRepository.CreateTag(ctx, &tag); err != nil {
		return domain.TagResponse{}, err
	}
	return toTagResponse(&tag), nil
}

func toTagResponse(tag *entities.Tag) domain.TagResponse {
	return domain.TagResponse{
		ID:    tag.ID.String(),
		Name:  tag.Name,
		Color: tag.Color,
		Slug:  tag.Slug,
	}
}
