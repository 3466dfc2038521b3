package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

func SendJSON(w http.ResponseWriter, status int, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, logger *slog.Logger, v any) {
	_, err := SendJSON(w, http.StatusOK, v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error(
			"unable to send response",
			slog.Any("response", v),
			slog.Any("error", err),
		)
	}
}

func sendErrorOrLog(w http.ResponseWriter, logger *slog.Logger, status int, e error) {
	_, err := SendJSON(w, status, wrapError(e))
	if err != nil {
		logger.Error(
			"failed to send error message",
			slog.Any("sent error", e),
			slog.Any("error", err),
		)
	}
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}

func internalError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	w.WriteHeader(http.StatusInternalServerError)
	logger.Error(msg, slog.Any("error", err))
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

// Health answers liveness probes.
func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
