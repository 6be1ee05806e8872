package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/desirability-form/app"
	"github.com/mbolis/desirability-form/httpx"
	"github.com/mbolis/desirability-form/log"
	"github.com/mbolis/desirability-form/model"
	"github.com/mbolis/desirability-form/normalize"
	"github.com/mbolis/desirability-form/store"
)

const (
	defaultLimit  = 100
	defaultOffset = 0
)

func SubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.Payload
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "Invalid JSON body: %s", err)
			return
		}
		if payload == nil {
			payload = model.Payload{}
		}

		if app.RequirePersonalInfo {
			if err = app.Check(payload); err != nil {
				httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.validate", "%s", err)
				return
			}
		}

		rec := normalize.Normalize(payload)
		id, err := app.Insert(r.Context(), rec)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_response", err, app.ExposeErrors)
			return
		}

		log.WithFields(log.Fields{"id": id, "email": rec.Email}).Info("form response stored")
		render.JSON(w, r, map[string]any{
			"success":       true,
			"message":       "Form submitted successfully",
			"submission_id": id,
		})
	}
}

func ListAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		q := store.ListQuery{
			Limit:  queryInt(query.Get("limit"), defaultLimit),
			Offset: queryInt(query.Get("offset"), defaultOffset),
			Email:  query.Get("email"),
		}

		records, total, err := app.List(r.Context(), q)
		if err != nil {
			httpx.LogInternalError(w, r, "db.list_responses", err, app.ExposeErrors)
			return
		}

		render.JSON(w, r, map[string]any{
			"success": true,
			"data":    records,
			"pagination": model.Pagination{
				Total:  total,
				Limit:  q.Limit,
				Offset: q.Offset,
				Count:  len(records),
			},
		})
	}
}

func GetAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.LogNotFound(w, r, "request.get_url_param.id", chi.URLParam(r, "id"))
			return
		}

		rec, err := app.Get(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, r, "get_response", id)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_response", err, app.ExposeErrors)
			return
		}

		render.JSON(w, r, map[string]any{
			"success": true,
			"data":    rec,
		})
	}
}

func AnswersSummary(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := app.Summarize(r.Context())
		if err != nil {
			httpx.LogInternalError(w, r, "db.summarize", err, app.ExposeErrors)
			return
		}

		render.JSON(w, r, map[string]any{
			"success": true,
			"summary": summary,
		})
	}
}

// queryInt parses a pagination parameter. Anything that is not an integer
// falls back to def; negative values clamp to zero.
func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	if n < 0 {
		return 0
	}
	return n
}
