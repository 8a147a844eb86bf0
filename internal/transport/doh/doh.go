// Package doh implements the DNS-over-HTTPS (well, plain HTTP; TLS
// termination is assumed to sit in front of this forwarder)
// listening transport: a GET endpoint carrying a base64url-encoded
// wire-format query, plus health/stats endpoints adapted from the
// teacher's management API.
package doh

import (
	"context"
	"embed"
	"encoding/base64"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/duskrelay/dnsforward/internal/transport/doh/docs"
)

// Embedded status page served at "/": just enough for a human poking
// at the forwarder to find the query endpoint and the health/stats
// routes. No build step, unlike the teacher's Angular SPA mount.
//
//go:embed dist/*
var embeddedUI embed.FS

func getEmbedFs() static.ServeFileSystem {
	fs, err := static.EmbedFolder(embeddedUI, "dist")
	if err != nil {
		panic("doh: failed to load embedded status page: " + err.Error())
	}
	return fs
}

// Dispatcher is the subset of forwarder.Dispatcher this transport
// depends on.
type Dispatcher interface {
	Dispatch(ctx context.Context, reqBytes []byte) ([]byte, error)
}

// Transport serves the DoH GET endpoint and a small set of
// operational endpoints over HTTP.
type Transport struct {
	Dispatch  Dispatcher
	Log       *slog.Logger
	startTime time.Time

	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Transport ready to ListenAndServe.
func New(dispatch Dispatcher, log *slog.Logger) *Transport {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(slogRequestLogger(log))
	engine.Use(static.Serve("/", getEmbedFs()))

	t := &Transport{Dispatch: dispatch, Log: log, startTime: time.Now(), engine: engine}

	engine.GET("/dns-query", t.handleQuery)
	engine.GET("/healthz", t.handleHealth)
	engine.GET("/stats", t.handleStats)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return t
}

// ListenAndServe binds addr (e.g. "127.0.0.1:4443") and serves until
// ctx is cancelled.
func (t *Transport) ListenAndServe(ctx context.Context, addr string) error {
	t.httpServer = &http.Server{
		Addr:              addr,
		Handler:           t.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- t.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// handleQuery implements the DoH GET form (RFC 8484 §4.1): the `dns`
// query parameter carries the base64url (no padding) wire-format
// query. POST is out of scope.
func (t *Transport) handleQuery(c *gin.Context) {
	qid := uuid.New().String()[:8]

	encoded := c.Query("dns")
	if encoded == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	reqBytes, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		t.Log.Debug("doh transport rejecting malformed dns param", "qid", qid, "err", err)
		c.Status(http.StatusBadRequest)
		return
	}

	resp, err := t.Dispatch.Dispatch(c.Request.Context(), reqBytes)
	if err != nil {
		t.Log.Debug("doh transport dropping unsalvageable query", "qid", qid, "err", err)
		c.Status(http.StatusBadRequest)
		return
	}

	t.Log.Debug("doh query answered", "qid", qid, "bytes_in", len(reqBytes), "bytes_out", len(resp))
	c.Data(http.StatusOK, "application/dns-message", resp)
}

func (t *Transport) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (t *Transport) handleStats(c *gin.Context) {
	uptime := time.Since(t.startTime)

	memStats := gin.H{}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		memStats["total_mb"] = float64(vmStat.Total) / 1024 / 1024
		memStats["used_mb"] = float64(vmStat.Used) / 1024 / 1024
		memStats["used_percent"] = vmStat.UsedPercent
	}

	cpuStats := gin.H{"num_cpu": runtime.NumCPU()}
	if pct, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(pct) > 0 {
		cpuStats["used_percent"] = pct[0]
	}

	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds": int64(uptime.Seconds()),
		"cpu":            cpuStats,
		"memory":         memStats,
	})
}

func slogRequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("doh request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
