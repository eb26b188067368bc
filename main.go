package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/gokaycavdar/go-trustguard/pkg/config"
	"github.com/gokaycavdar/go-trustguard/pkg/geo"
	"github.com/gokaycavdar/go-trustguard/pkg/geoip"
	"github.com/gokaycavdar/go-trustguard/pkg/integrity"
	"github.com/gokaycavdar/go-trustguard/pkg/logging"
	"github.com/gokaycavdar/go-trustguard/pkg/models"
	"github.com/gokaycavdar/go-trustguard/pkg/monitor"
	"github.com/gokaycavdar/go-trustguard/pkg/policy"
	"github.com/gokaycavdar/go-trustguard/pkg/report"
	"github.com/gokaycavdar/go-trustguard/pkg/source"
	"github.com/gokaycavdar/go-trustguard/pkg/storage"
)

func main() {
	cfg, err := config.Load(os.Getenv("TRUSTGUARD_CONFIG"))
	if err != nil {
		bootLogger := logging.New(config.LoggingConfig{Level: "info", Format: "json"})
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.Logging)
	logger.Info().
		Str("addr", cfg.Server.Addr).
		Dur("authenticity_period", cfg.Monitor.AuthenticityPeriod).
		Dur("integrity_period", cfg.Monitor.IntegrityPeriod).
		Msg("trustguard starting")

	inbox := source.NewInbox()
	store := storage.NewMemoryStore()

	queue := report.NewQueue(newSubmitter(cfg, logger), cfg.Device.ID, "", cfg.Report.FlushInterval, logger)
	machine := policy.NewStateMachine(cfg.Policy.ViolationCeiling, store, queue, nil, logger)

	probe := integrity.NewProbe(integrity.DefaultIndicatorTable())

	deps := monitor.Deps{
		Location:  inbox,
		Integrity: monitor.NewProbeIntegritySource(probe, inbox, nil),
		Network:   inbox,
		Machine:   machine,
		Store:     store,
		Logger:    logger,
	}

	if cfg.GeoIP.Enabled {
		geoService, err := geoip.NewService(cfg.GeoIP.CityDBPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open geoip database")
		}
		defer geoService.Close()
		deps.Secondary = geoip.NewSource(geoService, inbox.PublicIP)
	}

	scheduler := monitor.New(cfg.Monitor, cfg.Zone(), cfg.Thresholds(), deps)
	defer scheduler.Release()

	api := &apiServer{
		cfg:       cfg,
		machine:   machine,
		scheduler: scheduler,
		store:     store,
		inbox:     inbox,
		queue:     queue,
		logger:    logger,
	}

	sup := suture.New("trustguard", suture.Spec{
		EventHook: (&sutureslog.Handler{Logger: logging.Slog(logger)}).MustHook(),
	})
	sup.Add(scheduler.AuthenticityCycle())
	sup.Add(scheduler.IntegrityCycle())
	sup.Add(queue)
	sup.Add(api.service())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sup.Serve(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("supervisor exited")
	}
	logger.Info().Msg("trustguard stopped")
}

// newSubmitter returns the configured report transport. Without an endpoint
// reports stay local and are logged at debug on flush.
func newSubmitter(cfg *config.Config, logger zerolog.Logger) report.Submitter {
	if cfg.Report.Endpoint != "" {
		return report.NewHTTPSubmitter(cfg.Report.Endpoint, cfg.Report.APIKey)
	}
	return report.SubmitterFunc(func(_ context.Context, payload []byte) error {
		logger.Debug().RawJSON("report", payload).Msg("report delivered locally")
		return nil
	})
}

// apiServer is the HTTP surface: observation ingestion, trust inspection, the
// check-in gate and the admin reset.
type apiServer struct {
	cfg       *config.Config
	machine   *policy.StateMachine
	scheduler *monitor.Scheduler
	store     *storage.MemoryStore
	inbox     *source.Inbox
	queue     *report.Queue
	logger    zerolog.Logger
}

func (a *apiServer) service() *httpService {
	if a.cfg.Logging.Level != "debug" && a.cfg.Logging.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	v1.POST("/samples", a.handlePushSample)
	v1.POST("/environment", a.handlePushEnvironment)
	v1.POST("/checkin", a.handleCheckin)
	v1.GET("/trust", a.handleTrust)
	v1.POST("/admin/reset", a.handleReset)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &httpService{
		srv:    &http.Server{Addr: a.cfg.Server.Addr, Handler: r},
		logger: a.logger,
	}
}

func (a *apiServer) handlePushSample(c *gin.Context) {
	var sample models.LocationSample
	if err := c.ShouldBindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	a.inbox.PushSample(sample)

	// The transport address doubles as the device's public IP for the
	// secondary cross-source check.
	if ip := net.ParseIP(c.ClientIP()); ip != nil {
		a.inbox.SetPublicIP(ip)
	}

	c.Status(http.StatusAccepted)
}

func (a *apiServer) handlePushEnvironment(c *gin.Context) {
	var envReport integrity.EnvironmentReport
	if err := c.ShouldBindJSON(&envReport); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if envReport.TakenAt.IsZero() {
		envReport.TakenAt = time.Now()
	}

	a.inbox.PushEnvironment(envReport)
	c.Status(http.StatusAccepted)
}

// handleCheckin is the attendance gate: denied while any block is in effect,
// and only granted from a trusted fix inside the check-in zone.
func (a *apiServer) handleCheckin(c *gin.Context) {
	if a.machine.AttendanceBlocked() {
		reason, _ := a.machine.BlockingReason()
		c.JSON(http.StatusForbidden, gin.H{"allowed": false, "reason": reason})
		return
	}

	sample := a.machine.LastSample()
	if sample == nil {
		c.JSON(http.StatusConflict, gin.H{"allowed": false, "reason": "no trusted location fix yet"})
		return
	}
	if !geo.WithinZone(sample.Coordinate, a.cfg.Zone()) {
		c.JSON(http.StatusForbidden, gin.H{"allowed": false, "reason": "outside the check-in zone"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allowed":        true,
		"security_score": a.scheduler.SecurityScore(),
		"checked_in_at":  time.Now().UTC(),
	})
}

func (a *apiServer) handleTrust(c *gin.Context) {
	violations, err := a.store.Violations()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":               a.machine.Snapshot(),
		"security_score":      a.scheduler.SecurityScore(),
		"enhanced_monitoring": a.machine.EnhancedMonitoring(),
		"violations":          violations,
		"pending_reports":     a.queue.Pending(),
	})
}

func (a *apiServer) handleReset(c *gin.Context) {
	a.machine.Reset()
	a.logger.Info().Str("remote", c.ClientIP()).Msg("trust state reset via admin endpoint")
	c.Status(http.StatusNoContent)
}

// httpService runs the gin engine as a supervised service with graceful
// shutdown on cancellation.
type httpService struct {
	srv    *http.Server
	logger zerolog.Logger
}

func (s *httpService) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- s.srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("http shutdown did not complete cleanly")
		}
		return ctx.Err()
	}
}

func (s *httpService) String() string {
	return "http-api"
}
