package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	authdomain "github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/invoicedesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicedesk/internal/observability/tracing"
	"github.com/smallbiznis/invoicedesk/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
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
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

// run serves the engine for the lifetime of the app. Stopping drains
// in-flight requests for up to 10 seconds.
func run(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
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
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	authsvc      authdomain.Service
	invoiceSvc   invoicedomain.Service
	loginLimiter *ratelimit.LoginLimiter
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Authsvc      authdomain.Service
	InvoiceSvc   invoicedomain.Service
	LoginLimiter *ratelimit.LoginLimiter `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http"),
		authsvc:      p.Authsvc,
		invoiceSvc:   p.InvoiceSvc,
		loginLimiter: p.LoginLimiter,
		obsMetrics:   p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerInvoiceRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")

	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login)
	auth.GET("/profile", s.BearerAuth(), s.Profile)
}

func (s *Server) registerInvoiceRoutes() {
	api := s.engine.Group("/api", s.BearerAuth())

	// -------- Lists --------
	api.POST("/invoices", s.ListInvoices)
	api.POST("/invoices/list", s.ListInvoicesFull)
	api.GET("/invoices/billto/list", s.ListBillTo)
	api.GET("/invoices/shipto/list", s.ListShipTo)
	api.GET("/invoices/lncotenn/list", s.ListIncoterms)

	// -------- Stored documents --------
	api.GET("/invoices/original/:id", s.GetOriginalPDF)
	api.GET("/invoices/attachments/:id", s.GetAttachmentPDF)

	// -------- Single invoice --------
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PATCH("/invoices/:id", s.UpdateInvoice)
	api.GET("/invoices/:id/pdf", s.GetInvoicePDF)

	api.POST("/invoices/send-email", s.SendInvoicesEmail)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
