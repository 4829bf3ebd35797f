package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/camwatch/camwatch-go/internal/config"
	"github.com/camwatch/camwatch-go/internal/core/alerts"
	"github.com/camwatch/camwatch-go/internal/core/snooze"
	"github.com/camwatch/camwatch-go/internal/core/storage"
)

// Handlers holds dependencies for all HTTP handlers
type Handlers struct {
	cfg     *config.Config
	store   *storage.PhotoStore
	alerts  *alerts.State
	snoozes *snooze.Manager
	log     *logrus.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(cfg *config.Config, store *storage.PhotoStore, alertState *alerts.State, snoozes *snooze.Manager, log *logrus.Logger) *Handlers {
	return &Handlers{
		cfg:     cfg,
		store:   store,
		alerts:  alertState,
		snoozes: snoozes,
		log:     log,
	}
}
