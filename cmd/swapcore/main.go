package main

import (
	"context"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"swapcore/internal/config"
	"swapcore/internal/metrics"
	"swapcore/internal/supervisor"
)

func main() {
	cfg := config.Default()

	flag.IntVar(&cfg.Cores, "cores", cfg.Cores, "number of worker pseudo-cores")
	flag.IntVar(&cfg.SegmentMB, "segment-mb", cfg.SegmentMB, "per-worker segment size in MiB")
	flag.IntVar(&cfg.CacheMB, "cache-mb", cfg.CacheMB, "ring log size in MiB")
	flag.IntVar(&cfg.MaxCacheEntries, "max-cache-entries", cfg.MaxCacheEntries, "page cache capacity")
	flag.IntVar(&cfg.MigrationThreshold, "migration-threshold", cfg.MigrationThreshold, "scheduler migration threshold")
	flag.IntVar(&cfg.CompressionMinLevel, "compression-min-level", cfg.CompressionMinLevel, "zstd level for well-compressing pages")
	flag.IntVar(&cfg.CompressionMaxLevel, "compression-max-level", cfg.CompressionMaxLevel, "zstd level for poorly-compressing pages")
	flag.Float64Var(&cfg.CompressionAdaptiveThreshold, "compression-threshold", cfg.CompressionAdaptiveThreshold, "ratio-feedback threshold")
	flag.StringVar(&cfg.SwapImagePath, "swap-image", cfg.SwapImagePath, "path to the backing swap image file")
	metricsAddr := flag.String("metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")
	logLevel := flag.String("log-level", "info", "logrus log level")
	flag.Parse()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(lvl)
	}
	entry := logrus.NewEntry(log)

	m := metrics.New()
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m.MustRegister(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				entry.WithError(err).Error("metrics server stopped")
			}
		}()
		entry.WithField("addr", *metricsAddr).Info("serving metrics")
	}

	sup, err := supervisor.New(cfg, entry, m)
	if err != nil {
		entry.WithError(err).Fatal("startup failed")
	}

	if err := sup.Run(context.Background()); err != nil {
		entry.WithError(err).Error("supervisor exited with error")
		os.Exit(1)
	}
	entry.Info("Program terminated successfully.")
}
