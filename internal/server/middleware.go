package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	obscontext "github.com/fintro/receivables/internal/observability/context"
	"github.com/fintro/receivables/internal/observability/logger"
	"github.com/fintro/receivables/internal/orgcontext"
)

const rateLimitReasonOrgQuery = "org-query-rate"

// OrgContext resolves the :orgId path segment and makes the organization
// available to downstream services through the request context.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.Param("orgId"))
		orgID, err := snowflake.ParseString(raw)
		if err != nil || orgID == 0 {
			AbortWithError(c, newValidationError("orgId", "invalid_organization", "invalid organization id"))
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), int64(orgID))
		ctx = obscontext.WithOrgID(ctx, orgID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// QueryRateLimit throttles the org-scoped aggregation endpoints per
// organization and route. Runs after OrgContext.
func (s *Server) QueryRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.queryLimiter == nil || !s.queryLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		orgID, ok := orgcontext.OrgIDFromContext(ctx)
		if !ok || orgID == 0 {
			AbortWithError(c, ErrOrgRequired)
			return
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		result, err := s.queryLimiter.Allow(ctx, orgID.String(), endpoint)
		if err != nil {
			logger.FromContext(ctx).Warn("query rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			logger.FromContext(ctx).Warn("query rate limit exceeded",
				zap.String("reason", rateLimitReasonOrgQuery),
				zap.String("endpoint", endpoint),
			)
			if s.obsMetrics != nil {
				s.obsMetrics.RecordRateLimitDenied(ctx, orgID.String(), endpoint, rateLimitReasonOrgQuery)
			}
			c.Header("Retry-After", "1")
			c.Header("X-Rate-Limited-Reason", rateLimitReasonOrgQuery)
			AbortWithError(c, ErrRateLimited)
			return
		}

		if s.obsMetrics != nil {
			s.obsMetrics.RecordRateLimitAllowed(ctx, orgID.String(), endpoint)
		}
		c.Next()
	}
}
