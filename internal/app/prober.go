package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/restkit/internal/config"
	"github.com/samvad-hq/restkit/internal/logger"
	"github.com/samvad-hq/restkit/internal/metrics"
	"github.com/samvad-hq/restkit/internal/probe"
	"github.com/samvad-hq/restkit/internal/storage"
	"github.com/samvad-hq/restkit/pkg/httpclient"
	"github.com/samvad-hq/restkit/pkg/publishers"
	"github.com/samvad-hq/restkit/pkg/targets"
)

// Prober represents the prober runtime. It manages the probe loop, coordinating
// between targets, the probe service, and publishers. It also owns the storage
// backend and the metrics endpoint.
type Prober struct {
	cfg           *config.Config
	targetReg     *targets.Registry
	fanout        *publishers.Fanout
	probeService  *probe.Service
	probeInterval time.Duration
	log           logger.Logger
	store         storage.Store
	metrics       *metrics.Metrics
}

// NewProber builds a prober runtime from config files.
func NewProber(ctx context.Context, cfg *config.Config, log logger.Logger) (*Prober, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	targetReg, err := targets.LoadRegistry(cfg.TargetsFile)
	if err != nil {
		return nil, fmt.Errorf("load targets registry: %w", err)
	}
	enabledTargets := targetReg.Enabled()
	targetIDs := make([]string, 0, len(enabledTargets))
	for _, t := range enabledTargets {
		targetIDs = append(targetIDs, t.ID)
	}
	log.InfoObj("targets registry loaded", "targets_meta", map[string]any{
		"count": len(targetIDs),
		"ids":   targetIDs,
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	m := metrics.New()
	client := httpclient.NewRestyClient(cfg.RequestTimeout)
	probeService := probe.NewService(client, fanout, log, store, m)

	return &Prober{
		cfg:           cfg,
		targetReg:     targetReg,
		fanout:        fanout,
		probeService:  probeService,
		probeInterval: cfg.ProbeInterval,
		log:           log,
		store:         store,
		metrics:       m,
	}, nil
}

// buildFanout loads and builds enabled publishers. An empty path disables publishing.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		log.WarnObj("no publishers file configured; outcomes will only be logged", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run starts the probe loop until the context is cancelled.
func (p *Prober) Run(ctx context.Context) error {
	if p == nil || p.probeService == nil {
		return fmt.Errorf("prober is not initialized")
	}
	defer p.close()

	stopMetrics := p.serveMetrics()
	defer stopMetrics()

	tgts := p.targetReg.Enabled()
	if len(tgts) == 0 {
		p.log.WarnObj("no enabled targets; prober idle", "targets_file", p.cfg.TargetsFile)
		<-ctx.Done()
		return nil
	}

	p.log.InfoObj("prober loop starting", "prober_state", map[string]any{
		"targets_count":    len(tgts),
		"publishers_count": p.fanout.Size(),
		"probe_interval":   p.probeInterval.String(),
	})

	if err := p.runOnce(ctx, tgts); err != nil {
		p.log.ErrorObj("initial probe failed", "error", err)
	}

	ticker := time.NewTicker(p.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("prober loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := p.runOnce(ctx, tgts); err != nil {
				p.log.ErrorObj("scheduled probe failed", "error", err)
			}
		}
	}
}

// runOnce performs a single probe pass across all targets.
func (p *Prober) runOnce(ctx context.Context, tgts []targets.Target) error {
	start := time.Now()
	p.log.InfoObj("probe started", "probe_meta", map[string]any{
		"targets_count": len(tgts),
		"started_at":    start.UTC(),
	})
	results, err := p.probeService.Run(ctx, tgts)

	kinds := make(map[string]int, 4)
	changed := 0
	for _, r := range results {
		kinds[r.Outcome.Kind().String()]++
		if r.Changed {
			changed++
		}
	}
	p.log.InfoObj("probe completed", "probe_meta", map[string]any{
		"targets_count": len(tgts),
		"kinds":         kinds,
		"changed":       changed,
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return err
}

// serveMetrics exposes /metrics when an address is configured and returns its shutdown func.
func (p *Prober) serveMetrics() func() {
	if p.cfg.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.metrics.Handler())
	srv := &http.Server{
		Addr:              p.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.ErrorObj("metrics server failed", "error", err)
		}
	}()
	p.log.InfoObj("metrics server listening", "metrics_addr", p.cfg.MetricsAddr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			p.log.ErrorObj("metrics server shutdown failed", "error", err)
		}
	}
}

// close releases the storage backend and publisher connections, logging any errors encountered.
func (p *Prober) close() {
	if p.fanout != nil {
		if err := p.fanout.Close(); err != nil {
			p.log.ErrorObj("publisher close failed", "error", err)
		}
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			p.log.ErrorObj("storage close failed", "error", err)
		}
	}
}
