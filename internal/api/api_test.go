package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dagaz/internal/analytics"
	"github.com/starford/dagaz/internal/export"
	"github.com/starford/dagaz/internal/journal"
	"github.com/starford/dagaz/internal/lock"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/streak"
	"github.com/starford/dagaz/internal/testutil"
)

type testEnv struct {
	db     *store.DB
	router http.Handler
}

// newEnv builds a seeded database, the full component graph and a router.
func newEnv(t *testing.T, authEnabled bool) *testEnv {
	t.Helper()
	db := testutil.TestDB(t)
	_, files := testutil.TestDir(t)

	router := NewRouter(Deps{
		Journal:     journal.NewService(db),
		Streaks:     streak.New(db),
		Stats:       analytics.New(db),
		Exporter:    export.NewExporter(db, files, nil),
		Session:     lock.NewSession(db),
		AuthEnabled: authEnabled,
	})
	return &testEnv{db: db, router: router}
}

// do sends a JSON request. headers are key/value pairs.
func (env *testEnv) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) entryRequest(t *testing.T, day, title, content string) EntryRequest {
	t.Helper()
	return EntryRequest{
		Date:          day,
		Title:         title,
		Content:       content,
		PrimaryMoodID: testutil.MoodID(t, env.db, "Happy"),
	}
}

type createdEntry struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	Title     string `json:"title"`
	WordCount int    `json:"word_count"`
	ETag      string `json:"etag"`
	Tags      []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

type listResponse struct {
	Entries []createdEntry `json:"entries"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "decode %s", w.Body.String())
	return v
}

func (env *testEnv) create(t *testing.T, req EntryRequest) createdEntry {
	t.Helper()
	w := env.do(t, http.MethodPost, "/entries", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[createdEntry](t, w)
}

func TestCreateAndGetEntry(t *testing.T) {
	env := newEnv(t, false)

	req := env.entryRequest(t, "2024-03-10", "Quiet Sunday", "Walked by the river today")
	req.Tags = []string{"Nature", "river walks"}
	e := env.create(t, req)
	assert.Equal(t, "2024-03-10", e.Date)
	assert.Equal(t, 5, e.WordCount)
	assert.Len(t, e.Tags, 2)

	w := env.do(t, http.MethodGet, "/entries/"+strconv.FormatInt(e.ID, 10), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"`+e.ETag+`"`, w.Header().Get("ETag"))

	w = env.do(t, http.MethodGet, "/days/2024-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, e.ID, decode[createdEntry](t, w).ID)
}

func TestCreateDuplicateDay(t *testing.T) {
	env := newEnv(t, false)
	env.create(t, env.entryRequest(t, "2024-03-10", "One", "first"))

	w := env.do(t, http.MethodPost, "/entries", env.entryRequest(t, "2024-03-10", "Two", "second"))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateEntryValidation(t *testing.T) {
	env := newEnv(t, false)

	w := env.do(t, http.MethodPost, "/entries", env.entryRequest(t, "2024-03-10", "", "body"))
	require.Equal(t, http.StatusBadRequest, w.Code, "blank title")
	resp := decode[errResponse](t, w)
	assert.Contains(t, resp.Fields, "title")

	w = env.do(t, http.MethodPost, "/entries", env.entryRequest(t, "10/03/2024", "T", "body"))
	assert.Equal(t, http.StatusBadRequest, w.Code, "bad date")

	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "invalid JSON")
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	env := newEnv(t, false)
	e := env.create(t, env.entryRequest(t, "2024-03-10", "Draft", "first words"))
	target := "/entries/" + strconv.FormatInt(e.ID, 10)

	w := env.do(t, http.MethodPut, target, env.entryRequest(t, "2024-03-10", "Final", "second words"),
		"If-Match", `"`+e.ETag+`"`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[createdEntry](t, w)
	assert.Equal(t, "Final", updated.Title)
	assert.NotEqual(t, e.ETag, updated.ETag)

	w = env.do(t, http.MethodPut, target, env.entryRequest(t, "2024-03-10", "Stale", "x"),
		"If-Match", e.ETag)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestUpdateWithoutIfMatch(t *testing.T) {
	env := newEnv(t, false)
	e := env.create(t, env.entryRequest(t, "2024-03-10", "Draft", "first"))

	w := env.do(t, http.MethodPut, "/entries/"+strconv.FormatInt(e.ID, 10),
		env.entryRequest(t, "2024-03-11", "Moved", "to monday"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-11", decode[createdEntry](t, w).Date)
}

func TestUpdateEntry_NotFound(t *testing.T) {
	env := newEnv(t, false)

	w := env.do(t, http.MethodPut, "/entries/999", env.entryRequest(t, "2024-03-10", "T", "x"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEntry(t *testing.T) {
	env := newEnv(t, false)
	e := env.create(t, env.entryRequest(t, "2024-03-10", "Gone", "soon"))
	target := "/entries/" + strconv.FormatInt(e.ID, 10)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, target, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, target, nil).Code, "get after delete")
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, target, nil).Code, "second delete")
}

func TestGetEntry_BadID(t *testing.T) {
	env := newEnv(t, false)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/entries/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/days/yesterday", nil).Code)
}

func TestListEntriesPaginated(t *testing.T) {
	env := newEnv(t, false)
	for _, day := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		env.create(t, env.entryRequest(t, day, "Day "+day, "content"))
	}

	w := env.do(t, http.MethodGet, "/entries?page=2&size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listResponse](t, w)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Page)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "2024-03-01", resp.Entries[0].Date)
}

func TestListEntriesSearchAndFilter(t *testing.T) {
	env := newEnv(t, false)
	env.create(t, env.entryRequest(t, "2024-03-01", "Market", "Bought apples"))
	env.create(t, env.entryRequest(t, "2024-03-05", "Orchard", "Picked APPLES all day"))
	sad := env.entryRequest(t, "2024-03-09", "Rain", "Stayed in")
	sad.PrimaryMoodID = testutil.MoodID(t, env.db, "Sad")
	env.create(t, sad)

	w := env.do(t, http.MethodGet, "/entries?q=apples", nil)
	assert.Equal(t, 2, decode[listResponse](t, w).Total, "search")

	w = env.do(t, http.MethodGet, "/entries?q=apples&from=2024-03-02", nil)
	got := decode[listResponse](t, w)
	require.Equal(t, 1, got.Total, "search+range")
	assert.Equal(t, "Orchard", got.Entries[0].Title)

	sadID := testutil.MoodID(t, env.db, "Sad")
	w = env.do(t, http.MethodGet, "/entries?mood="+strconv.FormatInt(sadID, 10), nil)
	got = decode[listResponse](t, w)
	require.Equal(t, 1, got.Total, "mood filter")
	assert.Equal(t, "Rain", got.Entries[0].Title)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/entries?from=March", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/entries?tag=x", nil).Code)
}

func TestTags(t *testing.T) {
	env := newEnv(t, false)

	w := env.do(t, http.MethodPost, "/tags", TagRequest{Name: "Gardening"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		ID int64 `json:"id"`
	}](t, w)

	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/tags", TagRequest{Name: "gardening"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/tags", TagRequest{Name: "  "}).Code)

	prebuilt, err := env.db.TagByName(t.Context(), "Work")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest,
		env.do(t, http.MethodDelete, "/tags/"+strconv.FormatInt(prebuilt.ID, 10), nil).Code, "delete prebuilt")
	assert.Equal(t, http.StatusNoContent,
		env.do(t, http.MethodDelete, "/tags/"+strconv.FormatInt(created.ID, 10), nil).Code, "delete user tag")

	w = env.do(t, http.MethodGet, "/tags", nil)
	tags := decode[[]struct {
		Name string `json:"name"`
	}](t, w)
	assert.Len(t, tags, 31)

	w = env.do(t, http.MethodGet, "/moods", nil)
	moods := decode[[]struct {
		Name string `json:"name"`
	}](t, w)
	assert.Len(t, moods, 15)
}

func TestStats(t *testing.T) {
	env := newEnv(t, false)
	env.create(t, env.entryRequest(t, "2024-03-01", "A", "one two"))
	env.create(t, env.entryRequest(t, "2024-03-02", "B", "three"))
	env.create(t, env.entryRequest(t, "2024-03-04", "C", "four five six"))

	w := env.do(t, http.MethodGet, "/stats/streaks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[streak.Summary](t, w)
	assert.Equal(t, 2, sum.Longest)
	assert.Equal(t, 3, sum.TotalEntries)

	w = env.do(t, http.MethodGet, "/stats/missed?from=2024-03-01&to=2024-03-05", nil)
	missed := decode[MissedDaysResponse](t, w)
	assert.Equal(t, 2, missed.Count)
	assert.Equal(t, []string{"2024-03-03", "2024-03-05"}, missed.Days)

	w = env.do(t, http.MethodGet, "/stats/analytics?from=2024-03-01&to=2024-03-31&top=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[struct {
		TotalEntries     int            `json:"total_entries"`
		TotalWordCount   int            `json:"total_word_count"`
		MoodDistribution map[string]any `json:"mood_distribution"`
	}](t, w)
	assert.Equal(t, 3, report.TotalEntries)
	assert.Equal(t, 6, report.TotalWordCount)
	assert.Equal(t, 100.0, report.MoodDistribution["Positive"])
}

func TestExport(t *testing.T) {
	env := newEnv(t, false)

	w := env.do(t, http.MethodPost, "/exports", ExportRequest{From: "2024-03-01", To: "2024-03-31"})
	assert.Equal(t, http.StatusNotFound, w.Code, "empty export")

	env.create(t, env.entryRequest(t, "2024-03-10", "Quiet Sunday", "Walked by the river"))
	w = env.do(t, http.MethodPost, "/exports", ExportRequest{From: "2024-03-01", To: "2024-03-31"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[ExportResponse](t, w)
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### Quiet Sunday")

	w = env.do(t, http.MethodPost, "/exports", ExportRequest{From: "2024-03-31", To: "2024-03-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "reversed range")
}

func TestSettingsTheme(t *testing.T) {
	env := newEnv(t, false)

	w := env.do(t, http.MethodPut, "/settings", SettingsRequest{Theme: "dark"})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/settings", nil)
	st := decode[SettingsResponse](t, w)
	assert.Equal(t, "Dark", st.Theme)
	assert.False(t, st.HasCredential)
	assert.NotContains(t, w.Body.String(), "hash")

	w = env.do(t, http.MethodPut, "/settings", SettingsRequest{Theme: "sepia"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown theme")
}

func TestAuthMiddleware_NoCredential(t *testing.T) {
	env := newEnv(t, true)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/entries", nil).Code)
}

func TestAuthMiddleware_LockedSession(t *testing.T) {
	env := newEnv(t, true)

	w := env.do(t, http.MethodPut, "/session/credential", CredentialRequest{Secret: "1234"})
	require.Equal(t, http.StatusNoContent, w.Code, "set credential")
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/entries", nil).Code, "locked")

	w = env.do(t, http.MethodPost, "/session/unlock", CredentialRequest{Secret: "0000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "wrong passcode")
	w = env.do(t, http.MethodPost, "/session/unlock", CredentialRequest{Secret: "1234"})
	require.Equal(t, http.StatusOK, w.Code, "unlock")
	token := decode[SessionResponse](t, w).Token

	assert.Equal(t, http.StatusUnauthorized,
		env.do(t, http.MethodGet, "/entries", nil, "Authorization", "Bearer wrong").Code, "wrong token")
	assert.Equal(t, http.StatusOK,
		env.do(t, http.MethodGet, "/entries", nil, "Authorization", "Bearer "+token).Code, "valid token")
	assert.Equal(t, http.StatusOK,
		env.do(t, http.MethodGet, "/entries?token="+token, nil).Code, "query token")

	w = env.do(t, http.MethodPost, "/session/lock", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusNoContent, w.Code, "lock")
	assert.Equal(t, http.StatusUnauthorized,
		env.do(t, http.MethodGet, "/entries", nil, "Authorization", "Bearer "+token).Code, "after lock")
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	env := newEnv(t, false)

	env.do(t, http.MethodPut, "/session/credential", CredentialRequest{Secret: "1234"})
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/entries", nil).Code)
}

func TestUnlockWithoutCredential(t *testing.T) {
	env := newEnv(t, true)

	w := env.do(t, http.MethodPost, "/session/unlock", CredentialRequest{Secret: "1234"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	db := testutil.TestDB(t)
	session := lock.NewSession(db)
	require.NoError(t, session.SetCredential(t.Context(), "1234"))
	router := NewRouter(Deps{
		Journal:     journal.NewService(db),
		Session:     session,
		AuthEnabled: true,
		Events:      http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	})

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
