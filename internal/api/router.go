package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/analytics"
	"github.com/starford/dagaz/internal/export"
	"github.com/starford/dagaz/internal/journal"
	"github.com/starford/dagaz/internal/lock"
	"github.com/starford/dagaz/internal/streak"
)

// Deps are the components the API is served from.
type Deps struct {
	Journal  *journal.Service
	Streaks  *streak.Engine
	Stats    *analytics.Engine
	Exporter *export.Exporter
	Session  *lock.Session
	// AuthEnabled makes every route except unlock require an unlocked session.
	AuthEnabled bool
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d)

	var auth Authorizer
	if d.AuthEnabled && d.Session != nil {
		auth = d.Session
	}

	r := chi.NewRouter()
	r.Post("/session/unlock", h.Unlock)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(auth))

		// Entries.
		r.Get("/entries", h.ListEntries)
		r.Post("/entries", h.CreateEntry)
		r.Get("/entries/{id}", h.GetEntry)
		r.Put("/entries/{id}", h.UpdateEntry)
		r.Delete("/entries/{id}", h.DeleteEntry)
		r.Get("/days/{date}", h.GetDay)

		// Catalog.
		r.Get("/moods", h.ListMoods)
		r.Get("/tags", h.ListTags)
		r.Post("/tags", h.CreateTag)
		r.Delete("/tags/{id}", h.DeleteTag)

		// Statistics and export.
		r.Get("/stats/streaks", h.Streaks)
		r.Get("/stats/missed", h.MissedDays)
		r.Get("/stats/analytics", h.Analytics)
		r.Post("/exports", h.Export)

		// Settings and session.
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
		r.Post("/session/lock", h.Lock)
		r.Put("/session/credential", h.SetCredential)
		r.Delete("/session/credential", h.RemoveCredential)

		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}
	})

	return r
}
