package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	collectionsdomain "github.com/fintro/receivables/internal/collections/domain"
)

func (s *Server) GetCollectionsQueue(c *gin.Context) {
	if s.collectionsSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	top, err := parseOptionalInt(c.Query("top"))
	if err != nil || (top != nil && *top < 0) {
		AbortWithError(c, newValidationError("top", "invalid_top", "top must be a non-negative integer"))
		return
	}

	req := collectionsdomain.QueueRequest{}
	if top != nil {
		req.Top = *top
	}

	resp, err := s.collectionsSvc.Queue(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
