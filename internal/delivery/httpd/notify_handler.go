package httpd

import (
	"errors"
	"io"
	"net/http"

	"github.com/jaimelei/votingkioskthesis/realtime-service/internal/service"
)

const maxNotifyBodySize = 1 << 20 // 1 MiB

// Notify accepts an arbitrary JSON payload from an external process (the
// fingerprint scanner bridge) and fans it out to every open connection.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotifyBodySize))
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read notify body")
		writePlain(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if _, err := h.broadcasts.Broadcast(body); err != nil {
		if errors.Is(err, service.ErrInvalidPayload) {
			writePlain(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		h.logger.Error().Err(err).Msg("Broadcast failed")
		writePlain(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writePlain(w, http.StatusOK, "Broadcasted")
}
