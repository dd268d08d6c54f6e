package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/fintro/receivables/internal/cashflow"
	cashflowdomain "github.com/fintro/receivables/internal/cashflow/domain"
	"github.com/fintro/receivables/internal/collections"
	collectionsdomain "github.com/fintro/receivables/internal/collections/domain"
	"github.com/fintro/receivables/internal/config"
	"github.com/fintro/receivables/internal/ledger"
	"github.com/fintro/receivables/internal/observability"
	obsmiddleware "github.com/fintro/receivables/internal/observability/logger"
	obsmetrics "github.com/fintro/receivables/internal/observability/metrics"
	obstracing "github.com/fintro/receivables/internal/observability/tracing"
	"github.com/fintro/receivables/internal/ratelimit"
	"github.com/fintro/receivables/internal/receivables"
	receivablesdomain "github.com/fintro/receivables/internal/receivables/domain"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	ledger.Module,
	receivables.Module,
	cashflow.Module,
	collections.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node

	receivablesSvc receivablesdomain.Service
	cashflowSvc    cashflowdomain.Service
	collectionsSvc collectionsdomain.Service

	obsMetrics   *obsmetrics.Metrics
	queryLimiter *ratelimit.QueryLimiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	GenID          *snowflake.Node
	ReceivablesSvc receivablesdomain.Service
	CashflowSvc    cashflowdomain.Service
	CollectionsSvc collectionsdomain.Service
	ObsMetrics     *obsmetrics.Metrics     `optional:"true"`
	QueryLimiter   *ratelimit.QueryLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		genID:          p.GenID,
		receivablesSvc: p.ReceivablesSvc,
		cashflowSvc:    p.CashflowSvc,
		collectionsSvc: p.CollectionsSvc,
		obsMetrics:     p.ObsMetrics,
		queryLimiter:   p.QueryLimiter,
	}

	svc.registerCustomerRoutes()
	svc.registerAgentRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerCustomerRoutes() {
	customers := s.engine.Group("/customers")

	customers.GET("/:id/metrics", s.GetCustomerMetrics)
	customers.GET("/org/:orgId/summary", s.OrgContext(), s.QueryRateLimit(), s.GetOrgAgingSummary)
}

func (s *Server) registerAgentRoutes() {
	agents := s.engine.Group("/agents/org/:orgId", s.OrgContext(), s.QueryRateLimit())

	agents.GET("/cashflow", s.GetOrgCashflow)
	agents.GET("/risk", s.GetOrgRisk)
	agents.GET("/runway", s.GetOrgRunway)
	agents.GET("/collections", s.GetCollectionsQueue)
}
