package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mbolis/quick-survey/apperr"
	"github.com/mbolis/quick-survey/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// Fail answers with the status matching the error's kind. Store failures
// are logged in full and reported with the generic status text only.
func Fail(w http.ResponseWriter, code string, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		LogInternalError(w, code, err)
		return
	}

	status := StatusOf(e.Kind)
	if status == http.StatusInternalServerError {
		LogInternalError(w, code, err)
		return
	}
	LogStatusMsg(w, status, log.DebugLevel, code, "%s", e.Public())
}

func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.Authentication:
		return http.StatusUnauthorized
	case apperr.Authorization:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
