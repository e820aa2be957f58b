package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gymnastic/shopcart-backend/api/responses"
	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
	"github.com/gymnastic/shopcart-backend/pkg/logger"
)

// serveEventStream pushes every snapshot from the channel to the client as a
// server-sent event. The stream ends when the request context is cancelled or
// the channel closes.
func serveEventStream[T any](w http.ResponseWriter, r *http.Request, logg *logger.Logger, stream <-chan T) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-stream:
			if !open {
				return
			}
			body, err := json.Marshal(snapshot)
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "stream.encode", err)
				}
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", body)
			flusher.Flush()
		}
	}
}
