package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomchars42/Sortingshop/internal/logger"
	"github.com/randomchars42/Sortingshop/internal/media"
	"github.com/randomchars42/Sortingshop/internal/metadata"
	"github.com/randomchars42/Sortingshop/internal/metadata/metadatatest"
	"github.com/randomchars42/Sortingshop/internal/prepare"
	"github.com/randomchars42/Sortingshop/internal/service"
	"github.com/randomchars42/Sortingshop/internal/session"
	"github.com/randomchars42/Sortingshop/internal/sorter"
	"github.com/randomchars42/Sortingshop/internal/tagset"
)

const tagField = "HierarchicalSubject"

type testServer struct {
	server  *Server
	api     humatest.TestAPI
	root    string
	work    string
	backend *metadatatest.Backend
	files   []*media.File
}

// setupTestServer creates a server over prepared files in a temp directory.
func setupTestServer(t *testing.T, opts Options, names ...string) *testServer {
	t.Helper()
	root := t.TempDir()
	ts := &testServer{
		root:    root,
		work:    filepath.Join(root, "incoming"),
		backend: metadatatest.New(),
	}
	require.NoError(t, os.MkdirAll(ts.work, 0o755))
	for _, name := range names {
		path := filepath.Join(ts.work, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(path+".xmp", []byte("x"), 0o644))
		file := media.NewFile(path, path+".xmp")
		file.State = media.StatePrepared
		file.Source = 1
		ts.files = append(ts.files, file)
	}

	log := logger.Discard().Logger
	sets := tagset.New(map[string][]string{"we": {"Event|2020 Wedding", "Family"}})
	store := metadata.NewStore(ts.backend, tagField, log)
	preparer := prepare.NewEngine(prepare.Policy{UseSidecar: true, SoftCheck: true, CounterLength: 3}, store, sets, log)
	sess := session.New("ses-test", ts.work, ts.files, session.Deps{
		Store:    store,
		Preparer: preparer,
		Tagsets:  sets,
		Logger:   log,
	})
	rule, err := sorter.NewRule(tagField, regexp.MustCompile(`.*([0-9]{4} [^\/\\]+).*`), `\1`)
	require.NoError(t, err)
	shop := service.NewShop(sess, preparer, sorter.NewEngine(rule, root, ts.backend, 3, false, log), log)

	ts.server = NewServer(shop, opts, log)
	ts.api = humatest.Wrap(t, ts.server.api)
	return ts
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, Options{}, "a.jpg", "b.jpg")

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ses-test", health.Session.SessionID)
	assert.Equal(t, 2, health.Session.Files)
	assert.Equal(t, map[string]int{"prepared": 2}, health.Session.States)
}

func TestOpenAPI_SchemaNamesArePackageQualified(t *testing.T) {
	ts := setupTestServer(t, Options{})

	schemas := ts.server.api.OpenAPI().Components.Schemas.Map()
	for _, name := range []string{
		"PrepareFailure", "SessionFailure", "SorterFailure",
		"SessionMove", "SorterMove",
		"PrepareReport", "SessionFinalizeReport", "SorterReport",
		"SortResponse",
	} {
		assert.Contains(t, schemas, name)
	}
	assert.NotContains(t, schemas, "Failure")

	resp := ts.api.Get("/openapi.json")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetSession(t *testing.T) {
	ts := setupTestServer(t, Options{}, "a.jpg", "b.jpg")
	ts.backend.Set(ts.files[0].Sidecars[0], metadata.Fields{tagField: []string{"Holiday"}, "Rating": 3})

	resp := ts.api.Get("/api/v1/session")
	require.Equal(t, http.StatusOK, resp.Code)

	fb := decode[session.Feedback](t, resp)
	assert.Equal(t, "a.jpg", fb.File)
	assert.Equal(t, 1, fb.Position)
	assert.Equal(t, 2, fb.Total)
	assert.Equal(t, []string{"Holiday"}, fb.Tags)
	assert.Equal(t, 3, fb.Rating)
}

func TestRunCommand(t *testing.T) {
	ts := setupTestServer(t, Options{}, "a.jpg", "b.jpg")

	resp := ts.api.Post("/api/v1/commands", map[string]any{"line": "t we"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	fb := decode[session.Feedback](t, resp)
	assert.Equal(t, []string{"Event|2020 Wedding", "Family"}, fb.Tags)
	assert.Equal(t, []string{"Event|2020 Wedding", "Family"}, ts.backend.Get(ts.files[0].Sidecars[0]).Strings(tagField))

	resp = ts.api.Post("/api/v1/commands", map[string]any{"line": "n"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "b.jpg", decode[session.Feedback](t, resp).File)
}

func TestRunCommand_Errors(t *testing.T) {
	ts := setupTestServer(t, Options{}, "a.jpg")

	tests := []struct {
		name   string
		line   string
		status int
		code   string
	}{
		{name: "unknown directive", line: "z", status: http.StatusBadRequest, code: "UNKNOWN_COMMAND"},
		{name: "repeat without toggle", line: ".", status: http.StatusBadRequest, code: "NO_PRIOR_COMMAND"},
		{name: "jump to missing file", line: ": 9", status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "empty line", line: "", status: http.StatusUnprocessableEntity, code: "VALIDATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/commands", map[string]any{"line": tt.line})
			require.Equal(t, tt.status, resp.Code, resp.Body.String())

			apiErr := decode[APIError](t, resp)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestListCommands(t *testing.T) {
	ts := setupTestServer(t, Options{}, "a.jpg")

	resp := ts.api.Get("/api/v1/commands")
	require.Equal(t, http.StatusOK, resp.Code)

	list := decode[CommandListResponse](t, resp)
	require.NotEmpty(t, list.Commands)
	assert.Equal(t, "t", list.Commands[0].Directive)
}

func TestListTagsets(t *testing.T) {
	ts := setupTestServer(t, Options{}, "a.jpg")

	resp := ts.api.Get("/api/v1/tagsets")
	require.Equal(t, http.StatusOK, resp.Code)

	list := decode[TagsetListResponse](t, resp)
	assert.Equal(t, []service.Tagset{
		{Abbreviation: "we", Tags: []string{"Event|2020 Wedding", "Family"}},
	}, list.Tagsets)
}

func TestPrepare(t *testing.T) {
	ts := setupTestServer(t, Options{}, "a.jpg")
	ts.files[0].State = media.StateDiscovered

	resp := ts.api.Post("/api/v1/prepare")
	require.Equal(t, http.StatusOK, resp.Code)

	report := decode[prepare.Report](t, resp)
	assert.Equal(t, []string{ts.files[0].Path}, report.Skipped)
	assert.Empty(t, report.Failed)
	assert.False(t, report.Interrupted)
}

func TestFinalizeAndSort(t *testing.T) {
	ts := setupTestServer(t, Options{}, "a.jpg", "b.jpg")

	for _, line := range []string{"t we", "n", "d"} {
		resp := ts.api.Post("/api/v1/commands", map[string]any{"line": line})
		require.Equal(t, http.StatusOK, resp.Code, line)
	}

	resp := ts.api.Post("/api/v1/finalize")
	require.Equal(t, http.StatusOK, resp.Code)
	finalized := decode[session.FinalizeReport](t, resp)
	require.Len(t, finalized.Deleted, 1)
	assert.FileExists(t, filepath.Join(ts.work, media.DeletedDir, "b.jpg"))

	resp = ts.api.Post("/api/v1/sort")
	require.Equal(t, http.StatusOK, resp.Code)
	sorted := decode[SortResponse](t, resp)
	assert.Empty(t, sorted.Finalize.Deleted, "marks were already applied")
	require.Len(t, sorted.Sort.Sorted, 1)
	assert.Equal(t, "2020 Wedding", sorted.Sort.Sorted[0].Key)
	assert.FileExists(t, filepath.Join(ts.root, "2020 Wedding", "a.jpg"))
}

func TestCORS(t *testing.T) {
	ts := setupTestServer(t, Options{AllowedOrigins: []string{"http://localhost:5173"}}, "a.jpg")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/commands", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
