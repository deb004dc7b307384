package domain

import (
	"errors"
)

var (
	MessageSuccessGetTags = "success get tags"
	MessageFailedGetTags  = "failed to get tags"

	ErrTagNotFound       = errors.New("tag not found")
	ErrInvalidColor      = errors.New("color must match #RRGGBB or #RGB")
	ErrColorNotUnique    = errors.New("tag color already in use")
	ErrSlugNotUnique     = errors.New("tag slug already in use")
	ErrDuplicateTagInSet = errors.New("duplicated tag in request")
)

type (
	TagResponse struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Slug  string `json:"slug"`
	}

	CreateTagRequest struct {
		Name  string `json:"name" validate:"required,max=200"`
		Color string `json:"color" validate:"required"`
		Slug  string `json:"slug" validate:"required,max=200"`
	}
)
