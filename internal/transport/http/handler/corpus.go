package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"legalrag/internal/app"
	"legalrag/internal/transport/http/response"
)

type CorpusHandler struct {
	ingestService *app.IngestService
}

func NewCorpusHandler(ingestService *app.IngestService) *CorpusHandler {
	return &CorpusHandler{ingestService: ingestService}
}

// PutStatute accepts one statute record from the ingestion collaborator.
// Idempotent on external_id: re-delivery updates the stored record.
func (h *CorpusHandler) PutStatute(c *gin.Context) {
	var req app.StatuteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	rec, err := h.ingestService.PutStatute(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrStatuteInvalid):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "put statute failed")
		}
		return
	}
	response.OK(c, rec)
}
