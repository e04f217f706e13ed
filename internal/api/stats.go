package api

import (
	"net/http"
	"strconv"

	"github.com/starford/dagaz/internal/analytics"
	"github.com/starford/dagaz/internal/models"
)

// Streaks handles GET /api/stats/streaks.
//
//	@Summary		Current streak, longest streak and entry total
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	streak.Summary
//	@Security		BearerAuth
//	@Router			/stats/streaks [get]
func (h *Handler) Streaks(w http.ResponseWriter, r *http.Request) {
	sum, err := h.streaks.Summary(r.Context())
	if err != nil {
		writeError(w, "streaks", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// MissedDays handles GET /api/stats/missed.
//
//	@Summary		Days without an entry (defaults to the last month)
//	@Tags			stats
//	@Produce		json
//	@Param			from	query		string	false	"First day (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Last day (YYYY-MM-DD)"
//	@Success		200		{object}	MissedDaysResponse
//	@Security		BearerAuth
//	@Router			/stats/missed [get]
func (h *Handler) MissedDays(w http.ResponseWriter, r *http.Request) {
	from, err := dayQuery(r, "from")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	to, err := dayQuery(r, "to")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	days, err := h.streaks.MissedDays(r.Context(), from, to)
	if err != nil {
		writeError(w, "missed days", err)
		return
	}
	resp := MissedDaysResponse{Days: make([]string, len(days)), Count: len(days)}
	for i, d := range days {
		resp.Days[i] = models.FormatDay(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Analytics handles GET /api/stats/analytics.
//
//	@Summary		Mood, tag and word-count statistics for a period
//	@Tags			stats
//	@Produce		json
//	@Param			from	query		string	false	"First day (YYYY-MM-DD); open when omitted"
//	@Param			to		query		string	false	"Last day (YYYY-MM-DD); open when omitted"
//	@Param			top		query		int		false	"Number of top tags"	default(10)
//	@Success		200		{object}	AnalyticsResponse
//	@Security		BearerAuth
//	@Router			/stats/analytics [get]
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	var p analytics.Period
	from, err := dayQuery(r, "from")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if from != nil {
		p.From = *from
	}
	to, err := dayQuery(r, "to")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if to != nil {
		p.To = *to
	}
	top, _ := strconv.Atoi(r.URL.Query().Get("top"))

	report, err := h.stats.Summarize(r.Context(), p, top)
	if err != nil {
		writeError(w, "analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Export handles POST /api/exports.
//
//	@Summary		Write a Markdown document of the entries in a range
//	@Tags			export
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExportRequest	true	"Range"
//	@Success		201		{object}	ExportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse	"No entries in range"
//	@Security		BearerAuth
//	@Router			/exports [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	from, err := models.ParseDay(req.From)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("from: expected YYYY-MM-DD"))
		return
	}
	to, err := models.ParseDay(req.To)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("to: expected YYYY-MM-DD"))
		return
	}
	res, err := h.exporter.Export(r.Context(), from, to)
	if err != nil {
		writeError(w, "export", err)
		return
	}
	writeJSON(w, http.StatusCreated, ExportResponse{Path: res.Path, Entries: res.Entries})
}
