package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/mbolis/desirability-form/app"
	"github.com/mbolis/desirability-form/httpx"
	"github.com/mbolis/desirability-form/log"
	"github.com/mbolis/desirability-form/model"
	"github.com/mbolis/desirability-form/store"
)

func ExportData(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, err := store.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.export.format", "Unsupported export format: %s", r.URL.Query().Get("format"))
			return
		}

		if format == store.FormatCSV {
			body, err := app.Export(r.Context(), format)
			if err != nil {
				httpx.LogInternalError(w, r, "db.export.csv", err, app.ExposeErrors)
				return
			}
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", "attachment; filename=form_responses.csv")
			if _, err = w.Write(body); err != nil {
				log.Debugf("response.export.csv: %s", err)
			}
			return
		}

		records, err := app.All(r.Context())
		if err != nil {
			httpx.LogInternalError(w, r, "db.export.json", err, app.ExposeErrors)
			return
		}

		render.JSON(w, r, map[string]any{
			"success":       true,
			"data":          records,
			"total_records": len(records),
			"export_date":   time.Now().Format(time.RFC3339),
		})
	}
}

func PowerBI(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := app.All(r.Context())
		if err != nil {
			httpx.LogInternalError(w, r, "db.powerbi", err, app.ExposeErrors)
			return
		}

		rows := make([]model.PowerBIRow, len(records))
		for i, rec := range records {
			rows[i] = rec.PowerBI()
		}
		render.JSON(w, r, map[string]any{"value": rows})
	}
}

func InitDB(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Migrate(); err != nil {
			httpx.LogInternalError(w, r, "db.migrate", err, app.ExposeErrors)
			return
		}

		render.JSON(w, r, map[string]any{
			"success":         true,
			"message":         "Database initialized successfully",
			"database_driver": app.Driver(),
		})
	}
}

func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := app.Health(r.Context())
		if err != nil {
			log.Errorf("db.health: %s", err)
			msg := "Database error"
			if app.ExposeErrors {
				msg += ": " + err.Error()
			}
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]any{
				"status": "error",
				"database": map[string]any{
					"driver":     app.Driver(),
					"connection": "failed",
					"error":      msg,
				},
			})
			return
		}

		render.JSON(w, r, map[string]any{
			"status": "healthy",
			"database": map[string]any{
				"driver":       app.Driver(),
				"connection":   "successful",
				"table_exists": h.TableExists,
				"record_count": h.RecordCount,
			},
		})
	}
}
