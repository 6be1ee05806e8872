package routes_test

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mbolis/desirability-form/app"
	"github.com/mbolis/desirability-form/config"
	"github.com/mbolis/desirability-form/log"
	"github.com/mbolis/desirability-form/model"
	"github.com/mbolis/desirability-form/normalize"
	"github.com/mbolis/desirability-form/routes"
	"github.com/mbolis/desirability-form/store"
	"github.com/mbolis/desirability-form/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	db      *sql.DB
	cfg     config.Config
}

func newServer(t *testing.T, configure ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := testutil.GetTestConfig(t)
	for _, fn := range configure {
		fn(&cfg)
	}
	db := testutil.SetupTestDB(t, cfg)

	a := app.App{
		Store:     store.New(db, cfg.DBDriver),
		Validator: normalize.NewValidator(),
		Config:    cfg,
	}
	return &testServer{handler: routes.Wire(a), db: db, cfg: cfg}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, testutil.MakeRequest(method, path, body))
	return w
}

const fullPayload = `{
	"personalInfo": {
		"name": "Ada Lovelace",
		"gender": "female",
		"age": "36",
		"city": "London",
		"email": "ada@example.com",
		"phone": "555-0100",
		"occupation": "Engineer"
	},
	"responses": {
		"frustrations": {"ratings": [
			{"title": "No event buddies", "value": 3},
			{"title": "Difficulty finding people with similar interests", "value": "5"}
		]},
		"weekend":  {"answers": [{"value": "hiking"}, {"value": "board games"}]},
		"platform": {"answers": [{"value": 4}]},
		"safety":   {"answers": [{"value": "verified profiles"}]}
	}
}`

type submitResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SubmissionID int64  `json:"submission_id"`
	Error        string `json:"error"`
}

type answerResponse struct {
	Success bool               `json:"success"`
	Data    model.FormResponse `json:"data"`
	Error   string             `json:"error"`
}

type listResponse struct {
	Success    bool                 `json:"success"`
	Data       []model.FormResponse `json:"data"`
	Pagination model.Pagination     `json:"pagination"`
}

func submit(t *testing.T, s *testServer, body any) int64 {
	t.Helper()
	w := s.do(http.MethodPost, "/submit", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp submitResponse
	testutil.DecodeJSON(t, w, &resp)
	require.True(t, resp.Success)
	return resp.SubmissionID
}

func TestSubmitAndGet(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/submit", fullPayload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var resp submitResponse
	testutil.DecodeJSON(t, w, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "Form submitted successfully", resp.Message)
	assert.Positive(t, resp.SubmissionID)

	w = s.do(http.MethodGet, "/answers/"+itoa(resp.SubmissionID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got answerResponse
	testutil.DecodeJSON(t, w, &got)
	assert.True(t, got.Success)

	rec := got.Data
	assert.Equal(t, resp.SubmissionID, rec.ID)
	assert.Equal(t, "Ada Lovelace", rec.FullName)
	assert.Equal(t, 36, rec.Age)
	assert.Equal(t, "555-0100", rec.Phone)
	assert.Equal(t, 3, rec.FrustrationNoBuddies)
	assert.Equal(t, 5, rec.FrustrationSimilarInterests)
	assert.Equal(t, 0, rec.FrustrationSocialRut)
	assert.Equal(t, "hiking,board games", rec.WeekendOptions)
	assert.Equal(t, "4", rec.PlatformLikelihood)
	assert.Equal(t, "verified profiles", rec.Safety)
	assert.Equal(t, "", rec.Scenarios)
	assert.WithinDuration(t, time.Now(), rec.SubmissionDate, 5*time.Second)
}

func TestSubmit_EmptyPayload(t *testing.T) {
	s := newServer(t)

	id := submit(t, s, `{}`)

	w := s.do(http.MethodGet, "/answers/"+itoa(id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got answerResponse
	testutil.DecodeJSON(t, w, &got)
	assert.Equal(t, "", got.Data.FullName)
	assert.Equal(t, 0, got.Data.Age)
	assert.Equal(t, "", got.Data.WeekendOptions)
}

func TestSubmit_InvalidJSON(t *testing.T) {
	s := newServer(t)

	for _, body := range []string{`{"personalInfo":`, `[1, 2]`, `"text"`} {
		w := s.do(http.MethodPost, "/submit", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)

		var resp submitResponse
		testutil.DecodeJSON(t, w, &resp)
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Error)
	}

	w := s.do(http.MethodGet, "/answers", nil)
	var list listResponse
	testutil.DecodeJSON(t, w, &list)
	assert.Equal(t, 0, list.Pagination.Total)
}

func TestSubmit_RequirePersonalInfo(t *testing.T) {
	s := newServer(t, func(cfg *config.Config) { cfg.RequirePersonalInfo = true })

	w := s.do(http.MethodPost, "/submit", `{"personalInfo":{"name":"Ada","email":"ada@example.com"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp submitResponse
	testutil.DecodeJSON(t, w, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "Missing required fields: gender, age, city, occupation", resp.Error)

	submit(t, s, fullPayload)
}

func TestSubmit_StorageError(t *testing.T) {
	t.Run("exposed", func(t *testing.T) {
		s := newServer(t)
		s.db.Close()

		w := s.do(http.MethodPost, "/submit", fullPayload)
		require.Equal(t, http.StatusInternalServerError, w.Code)

		var resp submitResponse
		testutil.DecodeJSON(t, w, &resp)
		assert.False(t, resp.Success)
		assert.True(t, strings.HasPrefix(resp.Error, "Database error: "), resp.Error)
	})

	t.Run("redacted", func(t *testing.T) {
		s := newServer(t, func(cfg *config.Config) { cfg.ExposeErrors = false })
		s.db.Close()

		w := s.do(http.MethodPost, "/submit", fullPayload)
		require.Equal(t, http.StatusInternalServerError, w.Code)

		var resp submitResponse
		testutil.DecodeJSON(t, w, &resp)
		assert.Equal(t, "Database error", resp.Error)
	})
}

func TestListAnswers(t *testing.T) {
	s := newServer(t)

	var ids []int64
	for _, email := range []string{"one@example.com", "two@example.com", "three@Example.com"} {
		ids = append(ids, submit(t, s, map[string]any{
			"personalInfo": map[string]any{"email": email},
		}))
	}

	list := func(t *testing.T, query string) listResponse {
		t.Helper()
		w := s.do(http.MethodGet, "/answers"+query, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp listResponse
		testutil.DecodeJSON(t, w, &resp)
		require.True(t, resp.Success)
		return resp
	}

	t.Run("defaults", func(t *testing.T) {
		resp := list(t, "")
		assert.Equal(t, model.Pagination{Total: 3, Limit: 100, Offset: 0, Count: 3}, resp.Pagination)
		require.Len(t, resp.Data, 3)
		assert.Equal(t, ids[2], resp.Data[0].ID)
		assert.Equal(t, ids[0], resp.Data[2].ID)
	})

	t.Run("page", func(t *testing.T) {
		resp := list(t, "?limit=1&offset=1")
		assert.Equal(t, model.Pagination{Total: 3, Limit: 1, Offset: 1, Count: 1}, resp.Pagination)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, ids[1], resp.Data[0].ID)
	})

	t.Run("bad values fall back", func(t *testing.T) {
		resp := list(t, "?limit=abc&offset=-4")
		assert.Equal(t, 100, resp.Pagination.Limit)
		assert.Equal(t, 0, resp.Pagination.Offset)
		assert.Equal(t, 3, resp.Pagination.Count)
	})

	t.Run("past the end", func(t *testing.T) {
		resp := list(t, "?offset=10")
		assert.Equal(t, 3, resp.Pagination.Total)
		assert.Equal(t, 0, resp.Pagination.Count)
		assert.NotNil(t, resp.Data)
		assert.Empty(t, resp.Data)
	})

	t.Run("email filter", func(t *testing.T) {
		resp := list(t, "?email=THREE")
		assert.Equal(t, 1, resp.Pagination.Total)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "three@Example.com", resp.Data[0].Email)
	})
}

func TestGetAnswer_NotFound(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/answers/999", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp answerResponse
	testutil.DecodeJSON(t, w, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "Response not found", resp.Error)

	w = s.do(http.MethodGet, "/answers/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnswersSummary(t *testing.T) {
	s := newServer(t)

	for _, info := range []map[string]any{
		{"gender": "female", "age": 30, "city": "Porto"},
		{"gender": "male", "age": "40", "city": "Porto"},
		{"gender": "female", "city": "Lisbon"},
	} {
		submit(t, s, map[string]any{
			"personalInfo": info,
			"responses": map[string]any{
				"frustrations": map[string]any{"ratings": []any{
					map[string]any{"title": "Stuck in a social rut", "value": 3},
				}},
			},
		})
	}

	w := s.do(http.MethodGet, "/answers/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool          `json:"success"`
		Summary model.Summary `json:"summary"`
	}
	testutil.DecodeJSON(t, w, &resp)
	require.True(t, resp.Success)

	sum := resp.Summary
	assert.Equal(t, 3, sum.TotalResponses)
	assert.Equal(t, []model.GenderCount{{Gender: "female", Count: 2}, {Gender: "male", Count: 1}}, sum.GenderDistribution)
	assert.Equal(t, []model.CityCount{{City: "Porto", Count: 2}, {City: "Lisbon", Count: 1}}, sum.TopCities)
	require.NotNil(t, sum.AgeStatistics.AvgAge)
	assert.InDelta(t, 35.0, *sum.AgeStatistics.AvgAge, 0.001)
	require.NotNil(t, sum.AverageFrustrationScores.AvgSocialRut)
	assert.InDelta(t, 3.0, *sum.AverageFrustrationScores.AvgSocialRut, 0.001)
}

func TestAnswersSummary_Empty(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/answers/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	testutil.DecodeJSON(t, w, &resp)
	summary := resp["summary"].(map[string]any)
	assert.EqualValues(t, 0, summary["total_responses"])
	ages := summary["age_statistics"].(map[string]any)
	assert.Nil(t, ages["avg_age"])
	assert.Contains(t, ages, "avg_age")
}

func TestExportData(t *testing.T) {
	s := newServer(t)
	submit(t, s, fullPayload)
	submit(t, s, `{"personalInfo":{"name":"Grace, H.","email":"grace@example.com"}}`)

	t.Run("json by default", func(t *testing.T) {
		for _, query := range []string{"", "?format=json", "?format=JSON"} {
			w := s.do(http.MethodGet, "/api/data/export"+query, nil)
			require.Equal(t, http.StatusOK, w.Code, query)

			var resp struct {
				Success      bool                 `json:"success"`
				Data         []model.FormResponse `json:"data"`
				TotalRecords int                  `json:"total_records"`
				ExportDate   time.Time            `json:"export_date"`
			}
			testutil.DecodeJSON(t, w, &resp)
			assert.True(t, resp.Success)
			assert.Equal(t, 2, resp.TotalRecords)
			require.Len(t, resp.Data, 2)
			assert.Equal(t, "Grace, H.", resp.Data[0].FullName)
			assert.WithinDuration(t, time.Now(), resp.ExportDate, 5*time.Second)
		}
	})

	t.Run("csv", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/data/export?format=csv", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
		assert.Equal(t, "attachment; filename=form_responses.csv", w.Header().Get("Content-Disposition"))

		lines, err := csv.NewReader(w.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, lines, 3)
		assert.Equal(t, model.Columns, lines[0])
		assert.Equal(t, "Grace, H.", lines[1][1])
		assert.Equal(t, "Ada Lovelace", lines[2][1])
	})

	t.Run("unknown format", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/data/export?format=xml", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp submitResponse
		testutil.DecodeJSON(t, w, &resp)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "xml")
	})
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestExportData_CSVWriteError(t *testing.T) {
	s := newServer(t)
	submit(t, s, fullPayload)

	var logs bytes.Buffer
	log.SetOutput(&logs)
	log.SetLevel(log.DebugLevel)
	t.Cleanup(func() {
		log.SetOutput(io.Discard)
		log.SetLevel(log.InfoLevel)
	})

	w := brokenWriter{httptest.NewRecorder()}
	s.handler.ServeHTTP(w, testutil.MakeRequest(http.MethodGet, "/api/data/export?format=csv", nil))

	assert.Contains(t, logs.String(), "response.export.csv: connection reset")
}

func TestPowerBI(t *testing.T) {
	s := newServer(t)
	submit(t, s, fullPayload)

	w := s.do(http.MethodGet, "/api/data/powerbi", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Value []map[string]any `json:"value"`
	}
	testutil.DecodeJSON(t, w, &resp)
	require.Len(t, resp.Value, 1)

	row := resp.Value[0]
	assert.EqualValues(t, 3, row["frustration_score_no_buddies"])
	assert.EqualValues(t, 5, row["frustration_score_similar_interests"])
	assert.Contains(t, row, "frustration_score_starting_conversations")
	assert.NotContains(t, row, "phone")
	assert.NotContains(t, row, "frustration_no_buddies")
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, row["submission_date"])
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2}$`, row["submission_time"])
}

func TestPowerBI_Empty(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/data/powerbi", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"value":[]}`, w.Body.String())
}

func TestInitDB(t *testing.T) {
	s := newServer(t)
	submit(t, s, fullPayload)

	w := s.do(http.MethodPost, "/init-db", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{
		"success": true,
		"message": "Database initialized successfully",
		"database_driver": "sqlite3"
	}`, w.Body.String())

	// existing rows survive
	w = s.do(http.MethodGet, "/answers", nil)
	var list listResponse
	testutil.DecodeJSON(t, w, &list)
	assert.Equal(t, 1, list.Pagination.Total)
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	submit(t, s, fullPayload)

	w := s.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"status": "healthy",
		"database": {
			"driver": "sqlite3",
			"connection": "successful",
			"table_exists": true,
			"record_count": 1
		}
	}`, w.Body.String())

	s.db.Close()

	w = s.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp struct {
		Status   string            `json:"status"`
		Database map[string]string `json:"database"`
	}
	testutil.DecodeJSON(t, w, &resp)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "failed", resp.Database["connection"])
	assert.Equal(t, "sqlite3", resp.Database["driver"])
	assert.True(t, strings.HasPrefix(resp.Database["error"], "Database error"))
}

func TestStaticFiles(t *testing.T) {
	s := newServer(t)
	err := os.WriteFile(filepath.Join(s.cfg.StaticDir, "index.html"), []byte("<h1>questionnaire</h1>"), 0o644)
	require.NoError(t, err)

	w := s.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "questionnaire")

	w = s.do(http.MethodGet, "/missing.js", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	s := newServer(t)

	req := testutil.MakeRequest(http.MethodOptions, "/submit", nil)
	req.Header.Set("Origin", "https://forms.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	req = testutil.MakeRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://bi.example.com")
	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
