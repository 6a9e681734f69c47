package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/aplenty-server/internal/workflow"
)

func SendJSON(w http.ResponseWriter, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Add("Content-Type", "application/json")
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, log *logrus.Logger, v any) {
	sendJSONStatusOrLog(w, log, http.StatusOK, v)
}

// sendJSONStatusOrLog marshals v before committing status, so a marshal
// failure still turns into a 500.
func sendJSONStatusOrLog(w http.ResponseWriter, log *logrus.Logger, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.WithFields(logrus.Fields{
			"response": v,
			"error":    err,
		}).Error("unable to send response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		log.WithError(err).Error("unable to send response")
	}
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}

func sendError(w http.ResponseWriter, log *logrus.Logger, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(mustMarshal(wrapError(err))); err != nil {
		log.WithError(err).Error("unable to send error")
	}
}

func mustMarshal(v map[string]string) []byte {
	b, _ := json.Marshal(v)
	return b
}

// statusFor maps rule set errors to a response status.
func statusFor(err error) int {
	var (
		parseErr  *workflow.ParseError
		configErr *workflow.ConfigurationError
	)
	switch {
	case errors.As(err, &parseErr), errors.Is(err, workflow.ErrVolumeOverflow):
		return http.StatusBadRequest
	case errors.As(err, &configErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
