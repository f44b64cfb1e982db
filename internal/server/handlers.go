package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bookrag/internal/models"
	"bookrag/internal/rag"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAsk(c *gin.Context) {
	var req models.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: errorDetail{
			Kind:    string(rag.KindValidation),
			Message: "invalid request body: " + err.Error(),
		}})
		return
	}

	resp, err := s.pipeline.Ask(c.Request.Context(), req)
	if err != nil {
		status, kind := statusFor(err)
		log.Error().Err(err).Str("kind", string(kind)).Msg("ask failed")
		c.JSON(status, errorBody{Error: errorDetail{Kind: string(kind), Message: err.Error()}})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// statusFor maps typed pipeline errors onto HTTP statuses. Upstream model
// failures surface as bad gateway; everything untyped is a plain 500.
func statusFor(err error) (int, rag.Kind) {
	kind := rag.KindOf(err)
	switch kind {
	case rag.KindValidation:
		return http.StatusBadRequest, kind
	case rag.KindRetrieval:
		return http.StatusNotFound, kind
	case rag.KindEmbedding, rag.KindComposition:
		return http.StatusBadGateway, kind
	case "":
		return http.StatusInternalServerError, rag.Kind("internal")
	default:
		return http.StatusInternalServerError, kind
	}
}
