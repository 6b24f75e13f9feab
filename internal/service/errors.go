package service

import (
	"errors"

	"github.com/copple/planner/internal/repository"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoFields          = repository.ErrNoFields
	ErrNotFound          = errors.New("record not found")
	ErrDecode            = repository.ErrDecode
	ErrUpload            = errors.New("asset upload failed")
	ErrStore             = errors.New("record store failed")
	ErrTimeout           = errors.New("remote call timed out")
)
