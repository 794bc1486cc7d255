package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"guildsync/internal/domain/entity"
	"guildsync/internal/usecase/feed"
)

// galleryCheckRequest is the body of POST /ops/gallery/test.
type galleryCheckRequest struct {
	// PageRef is a gallery page id or share URL, optionally with a #uuid
	// fragment selecting a specific gallery block.
	PageRef string `json:"page_ref"`

	// ChannelID, when set, publishes the newest candidate to that channel.
	// Left empty the check is a dry run: extraction only, nothing sent.
	ChannelID string `json:"channel_id,omitempty"`
}

type opsErrorResponse struct {
	Error string `json:"error"`
}

// galleryCheckHandler exposes the extraction pipeline for operators: given a
// page reference it runs the full fetch-and-extract cascade against the live
// page and reports what would be published, without touching any stored feed
// state.
func galleryCheckHandler(logger *slog.Logger, svc *feed.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			_ = json.NewEncoder(w).Encode(opsErrorResponse{Error: "method not allowed"})
			return
		}

		var req galleryCheckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(opsErrorResponse{Error: "invalid JSON body"})
			return
		}
		if req.PageRef == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(opsErrorResponse{Error: "page_ref is required"})
			return
		}

		result, err := svc.RunGalleryCheck(r.Context(), req.PageRef, req.ChannelID)
		if err != nil {
			if errors.Is(err, entity.ErrInvalidPageRef) {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(opsErrorResponse{Error: "page_ref is not a valid gallery page reference"})
				return
			}
			logger.Error("gallery check failed",
				slog.String("page_ref", req.PageRef),
				slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(opsErrorResponse{Error: "gallery check failed"})
			return
		}

		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.Error("failed to encode gallery check response", slog.Any("error", err))
		}
	})
}
