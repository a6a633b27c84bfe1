// Package handler wires the document endpoints to the document service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"knowledgehub/internal/audit"
	"knowledgehub/internal/document/models"
	"knowledgehub/internal/document/service"
	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
	"knowledgehub/pkg/platform/httputil"
	"knowledgehub/pkg/requestcontext"
)

// Service defines the document operations the handler depends on.
type Service interface {
	Upload(ctx context.Context, req service.UploadRequest) (*service.UploadResult, error)
	ChangeStatus(ctx context.Context, docID id.DocumentID, req service.ChangeStatusRequest) (*models.Document, error)
	Rate(ctx context.Context, docID id.DocumentID, stars int) (*models.Document, error)
	AddComment(ctx context.Context, docID id.DocumentID, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, docID id.DocumentID, commentID id.CommentID) error
	ToggleLike(ctx context.Context, docID id.DocumentID) (bool, error)
	Flag(ctx context.Context, docID id.DocumentID, reason string) (*models.Document, error)
	ResolveFlag(ctx context.Context, docID id.DocumentID, resolution string) (*models.Document, error)
	Get(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	List(ctx context.Context) ([]*models.Document, error)
	ListMine(ctx context.Context) ([]*models.Document, error)
	History(ctx context.Context, docID id.DocumentID) ([]audit.Entry, error)
}

// Handler exposes the document API.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a document handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts document endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/upload", h.HandleUpload)
	r.Get("/documents", h.HandleList)
	r.Get("/documents/mine", h.HandleListMine)
	r.Get("/documents/{id}", h.HandleGet)
	r.Put("/documents/{id}/status", h.HandleChangeStatus)
	r.Post("/documents/{id}/rate", h.HandleRate)
	r.Post("/documents/{id}/comments", h.HandleAddComment)
	r.Delete("/documents/{id}/comments/{commentID}", h.HandleDeleteComment)
	r.Post("/documents/{id}/like", h.HandleToggleLike)
	r.Get("/documents/{id}/history", h.HandleHistory)
	r.Put("/governance/flag/{id}", h.HandleFlag)
	r.Put("/governance/resolve/{id}", h.HandleResolveFlag)
}

// documentID parses the {id} route parameter, writing the error envelope on
// failure.
func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (id.DocumentID, bool) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid document id"))
		return id.DocumentID{}, false
	}
	return docID, true
}

// HandleUpload handles POST /documents/upload. A duplicate warning is a 409
// whose body carries the ranked candidate list; the caller re-submits with
// confirm_duplicate to proceed.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[service.UploadRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Upload(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "upload failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if result.Document == nil {
		httputil.WriteJSON(w, http.StatusConflict, duplicateWarningResponse(result))
		return
	}
	status := http.StatusCreated
	if result.AppendedToExisting {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, uploadResponse(result))
}

// HandleGet handles GET /documents/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(r.Context(), docID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, documentResponse(doc))
}

// HandleList handles GET /documents.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, documentListResponse(docs))
}

// HandleListMine handles GET /documents/mine.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListMine(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, documentListResponse(docs))
}

// HandleChangeStatus handles PUT /documents/{id}/status.
func (h *Handler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[service.ChangeStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	doc, err := h.service.ChangeStatus(ctx, docID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, documentResponse(doc))
}

// HandleRate handles POST /documents/{id}/rate.
func (h *Handler) HandleRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[rateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	doc, err := h.service.Rate(ctx, docID, req.Stars)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ratingResponse{
		AverageRating: doc.AverageRating(),
		RatingCount:   len(doc.Ratings),
	})
}

// HandleAddComment handles POST /documents/{id}/comments.
func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[commentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	comment, err := h.service.AddComment(ctx, docID, req.Text)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// HandleDeleteComment handles DELETE /documents/{id}/comments/{commentID}.
func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	commentID, err := id.ParseCommentID(chi.URLParam(r, "commentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid comment id"))
		return
	}

	if err := h.service.DeleteComment(r.Context(), docID, commentID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleLike handles POST /documents/{id}/like.
func (h *Handler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	liked, err := h.service.ToggleLike(r.Context(), docID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, likeResponse{Liked: liked})
}

// HandleHistory handles GET /documents/{id}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.History(r.Context(), docID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{Entries: entries})
}

// HandleFlag handles PUT /governance/flag/{id}.
func (h *Handler) HandleFlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[flagRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	doc, err := h.service.Flag(ctx, docID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, documentResponse(doc))
}

// HandleResolveFlag handles PUT /governance/resolve/{id}.
func (h *Handler) HandleResolveFlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[resolveFlagRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	doc, err := h.service.ResolveFlag(ctx, docID, req.Resolution)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, documentResponse(doc))
}
