package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	receivablesdomain "github.com/fintro/receivables/internal/receivables/domain"
)

func (s *Server) GetCustomerMetrics(c *gin.Context) {
	if s.receivablesSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req := receivablesdomain.CustomerMetricsRequest{
		CustomerID: strings.TrimSpace(c.Param("id")),
		From:       from,
		To:         to,
	}

	resp, err := s.receivablesSvc.CustomerMetrics(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetOrgAgingSummary(c *gin.Context) {
	if s.receivablesSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.receivablesSvc.OrgSummary(c.Request.Context(), receivablesdomain.OrgSummaryRequest{
		From: from,
		To:   to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
