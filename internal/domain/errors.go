package domain

import "errors"

var (
	ErrSiteNotFound    = errors.New("site configuration not found")
	ErrSlugTaken       = errors.New("slug already taken")
	ErrSlugInvalid     = errors.New("slug is not valid")
	ErrSlugUnavailable = errors.New("slug availability could not be confirmed")
	ErrNoSession       = errors.New("no editing session open")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
)

var (
	ErrUnknownRole       = errors.New("unknown style token")
	ErrInvalidViewport   = errors.New("unknown viewport")
	ErrPublishInProgress = errors.New("publish already in progress")
)
