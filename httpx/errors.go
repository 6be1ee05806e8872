package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/desirability-form/log"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

// Will log an error, and send an HTTP response with status 500.
// The error text is only included when expose is set.
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error, expose bool) {
	log.Errorf("%s: %s", code, err)
	msg := "Database error"
	if expose {
		msg += ": " + err.Error()
	}
	renderError(w, r, http.StatusInternalServerError, msg)
}

// Will log a debug message, and send an HTTP response with status 404
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	renderError(w, r, http.StatusNotFound, "Response not found")
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	renderError(w, r, status, errMsg)
}
