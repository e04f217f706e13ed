package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/analytics"
	"github.com/starford/dagaz/internal/export"
	"github.com/starford/dagaz/internal/journal"
	"github.com/starford/dagaz/internal/lock"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/streak"
)

// Handler holds API route handlers.
type Handler struct {
	journal  *journal.Service
	streaks  *streak.Engine
	stats    *analytics.Engine
	exporter *export.Exporter
	session  *lock.Session
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		journal:  d.Journal,
		streaks:  d.Streaks,
		stats:    d.Stats,
		exporter: d.Exporter,
		session:  d.Session,
	}
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return 0, false
	}
	return id, true
}

// dayQuery parses an optional YYYY-MM-DD query parameter.
func dayQuery(r *http.Request, key string) (*time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := models.ParseDay(v)
	if err != nil {
		return nil, errors.New(key + ": expected YYYY-MM-DD")
	}
	return &d, nil
}

// idsQuery collects ids from repeated and comma-separated parameters.
func idsQuery(r *http.Request, key string) ([]int64, error) {
	var out []int64
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, errors.New(key + ": expected numeric ids")
			}
			out = append(out, id)
		}
	}
	return out, nil
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List entries, newest first, or search and filter them
//	@Tags			entries
//	@Produce		json
//	@Param			page	query		int		false	"Page number (1-based)"
//	@Param			size	query		int		false	"Page size"
//	@Param			q		query		string	false	"Case-insensitive text in title or content"
//	@Param			from	query		string	false	"First day (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Last day (YYYY-MM-DD)"
//	@Param			mood	query		[]int	false	"Mood ids (any slot)"
//	@Param			tag		query		[]int	false	"Tag ids"
//	@Success		200		{object}	EntryListResponse
//	@Security		BearerAuth
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("q") && !q.Has("from") && !q.Has("to") && !q.Has("mood") && !q.Has("tag") {
		page, _ := strconv.Atoi(q.Get("page"))
		size, _ := strconv.Atoi(q.Get("size"))
		p, err := h.journal.ListEntries(r.Context(), page, size)
		if err != nil {
			writeError(w, "list entries", err)
			return
		}
		writeJSON(w, http.StatusOK, EntryListResponse{
			Entries: entryDTOs(p.Entries),
			Total:   p.Total,
			Page:    p.Page,
			Size:    p.Size,
		})
		return
	}

	query := journal.Query{Text: q.Get("q")}
	var err error
	if query.Filter.Start, err = dayQuery(r, "from"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if query.Filter.End, err = dayQuery(r, "to"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if query.Filter.MoodIDs, err = idsQuery(r, "mood"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if query.Filter.TagIDs, err = idsQuery(r, "tag"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	entries, err := h.journal.Find(r.Context(), query)
	if err != nil {
		writeError(w, "find entries", err)
		return
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: entryDTOs(entries), Total: len(entries)})
}

// GetEntry handles GET /api/entries/{id}.
//
//	@Summary		Get a single entry
//	@Tags			entries
//	@Produce		json
//	@Param			id	path		int	true	"Entry id"
//	@Success		200	{object}	EntryDTO
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	e, err := h.journal.Entry(r.Context(), id)
	if err != nil {
		writeError(w, "get entry", err)
		return
	}
	writeEntry(w, http.StatusOK, e)
}

// GetDay handles GET /api/days/{date}.
//
//	@Summary		Get the entry recorded on a calendar day
//	@Tags			entries
//	@Produce		json
//	@Param			date	path		string	true	"Day (YYYY-MM-DD)"
//	@Success		200		{object}	EntryDTO
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/days/{date} [get]
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	day, err := models.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("date: expected YYYY-MM-DD"))
		return
	}
	e, err := h.journal.EntryForDay(r.Context(), day)
	if err != nil {
		writeError(w, "get day", err)
		return
	}
	writeEntry(w, http.StatusOK, e)
}

// CreateEntry handles POST /api/entries.
//
//	@Summary		Create the entry for a day
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EntryRequest	true	"Entry"
//	@Success		201		{object}	EntryDTO
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse	"Day already has an entry"
//	@Security		BearerAuth
//	@Router			/entries [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("date: expected YYYY-MM-DD"))
		return
	}
	e, err := h.journal.CreateEntry(r.Context(), in)
	if err != nil {
		writeError(w, "create entry", err)
		return
	}
	writeEntry(w, http.StatusCreated, e)
}

// UpdateEntry handles PUT /api/entries/{id}.
//
//	@Summary		Replace an entry (optimistic locking via If-Match)
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			id			path		int				true	"Entry id"
//	@Param			If-Match	header		string			false	"ETag from a previous read"
//	@Param			body		body		EntryRequest	true	"Entry"
//	@Success		200			{object}	EntryDTO
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse	"Target day already has an entry"
//	@Failure		412			{object}	errResponse	"ETag mismatch"
//	@Security		BearerAuth
//	@Router			/entries/{id} [put]
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("date: expected YYYY-MM-DD"))
		return
	}
	e, err := h.journal.UpdateEntry(r.Context(), id, in, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "update entry", err)
		return
	}
	writeEntry(w, http.StatusOK, e)
}

// DeleteEntry handles DELETE /api/entries/{id}.
//
//	@Summary		Delete an entry
//	@Tags			entries
//	@Param			id	path	int	true	"Entry id"
//	@Success		204
//	@Security		BearerAuth
//	@Router			/entries/{id} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.journal.DeleteEntry(r.Context(), id); err != nil {
		writeError(w, "delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeEntry(w http.ResponseWriter, status int, e *models.JournalEntry) {
	dto := entryDTO(e)
	w.Header().Set("ETag", `"`+dto.ETag+`"`)
	writeJSON(w, status, dto)
}

// ListMoods handles GET /api/moods.
//
//	@Summary		List the mood catalog
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{array}	models.Mood
//	@Security		BearerAuth
//	@Router			/moods [get]
func (h *Handler) ListMoods(w http.ResponseWriter, r *http.Request) {
	moods, err := h.journal.Moods(r.Context())
	if err != nil {
		writeError(w, "list moods", err)
		return
	}
	writeJSON(w, http.StatusOK, moods)
}

// ListTags handles GET /api/tags.
//
//	@Summary		List prebuilt and user tags
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{array}	models.Tag
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.journal.Tags(r.Context())
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// CreateTag handles POST /api/tags.
//
//	@Summary		Create a user tag
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TagRequest	true	"Tag"
//	@Success		201		{object}	models.Tag
//	@Failure		409		{object}	errResponse	"Name already exists"
//	@Security		BearerAuth
//	@Router			/tags [post]
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.journal.CreateTag(r.Context(), req.Name)
	if err != nil {
		writeError(w, "create tag", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// DeleteTag handles DELETE /api/tags/{id}.
//
//	@Summary		Delete a user tag
//	@Tags			catalog
//	@Param			id	path	int	true	"Tag id"
//	@Success		204
//	@Failure		400	{object}	errResponse	"Prebuilt tag"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags/{id} [delete]
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.journal.DeleteTag(r.Context(), id); err != nil {
		writeError(w, "delete tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
