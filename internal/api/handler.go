package api

import (
	"pmms-backend/internal/livedata"
	"pmms-backend/internal/localtime"
	"pmms-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store  store.Store
	engine *livedata.Engine
	offset localtime.Offset
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, engine *livedata.Engine) *Handler {
	return &Handler{
		store:  s,
		engine: engine,
		offset: engine.Offset,
	}
}
