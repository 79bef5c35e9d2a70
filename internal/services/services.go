// Package services holds the marketplace business rules between the HTTP
// handlers and the repositories.
package services

import (
	"errors"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/notify"
	"github.com/anonto42/bazaar/backend/internal/repositories"
)

// Notifier is the fire-and-forget side of notify.Emitter.
type Notifier interface {
	Emit(ev notify.Event)
	EmitFunc(kind models.NotificationType, build notify.BuildFunc)
}

// storageErr maps repository failures: ErrNotFound becomes a NotFound with
// the given message, anything else an Internal error.
func storageErr(err error, notFound string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NewNotFound(notFound)
	}
	return apperr.Wrap(err, notFound)
}

func preview(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "…"
}
