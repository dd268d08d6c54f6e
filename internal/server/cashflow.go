package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cashflowdomain "github.com/fintro/receivables/internal/cashflow/domain"
)

func (s *Server) GetOrgCashflow(c *gin.Context) {
	if s.cashflowSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.cashflowSvc.Cashflow(c.Request.Context(), cashflowdomain.CashflowRequest{
		From: from,
		To:   to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetOrgRisk(c *gin.Context) {
	if s.cashflowSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	resp, err := s.cashflowSvc.Risk(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetOrgRunway(c *gin.Context) {
	if s.cashflowSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	resp, err := s.cashflowSvc.Runway(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
