package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mbolis/desirability-form/config"
	"github.com/mbolis/desirability-form/database"
	"github.com/mbolis/desirability-form/log"
	"github.com/mbolis/desirability-form/model"
	"github.com/stretchr/testify/require"
)

// GetTestConfig returns a configuration pointing at a fresh SQLite file
// inside the test's temp dir.
func GetTestConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Addr:         "127.0.0.1:0",
		DBDriver:     config.DriverSQLite,
		DBUrl:        filepath.Join(t.TempDir(), "test.db"),
		StaticDir:    t.TempDir(),
		ExposeErrors: true,
	}
}

// SetupTestDB opens and migrates the database described by cfg. It is
// closed when the test ends.
func SetupTestDB(t *testing.T, cfg config.Config) *sql.DB {
	t.Helper()
	log.SetOutput(io.Discard)

	db, err := database.Open(cfg)
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { db.Close() })
	return db
}

// SampleResponse returns a normalized record with every column filled in.
func SampleResponse(name, email string) model.FormResponse {
	return model.FormResponse{
		FullName:                    name,
		Gender:                      "female",
		Age:                         31,
		City:                        "Lisbon",
		Email:                       email,
		Phone:                       "555-0100",
		Occupation:                  "Designer",
		FrustrationNoBuddies:        3,
		FrustrationSocialRut:        1,
		FrustrationStartingConvos:   4,
		FrustrationSimilarInterests: 2,
		FrustrationShortNotice:      5,
		FrustrationIsolatedNewPlace: 0,
		WeekendOptions:              "hiking,board games",
		MeetingFeeling:              "excited",
		VibeSelections:              "chill",
		LastNewThing:                "pottery",
		MeetingBlocker:              "time",
		SafeFunOption:               "group",
		PlatformLikelihood:          "4",
		Challenges:                  "shyness",
		Features:                    "events,chat",
		Safety:                      "verified profiles",
		Scenarios:                   "a,b",
	}
}

// MakeRequest creates an HTTP test request with an optional JSON body.
func MakeRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}

	var raw []byte
	if s, ok := body.(string); ok {
		raw = []byte(s)
	} else {
		raw, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSON decodes the recorded response body into v.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v), "decode response: %s", w.Body.String())
}
