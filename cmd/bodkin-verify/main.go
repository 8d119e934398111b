// bodkin-verify sweeps the engine against host references and reports
// mismatches.  Prometheus metrics are exposed when -metrics is set.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/23skdu/longbow-bodkin/internal/config"
	"github.com/23skdu/longbow-bodkin/internal/harness"
	"github.com/23skdu/longbow-bodkin/internal/logger"
	"github.com/23skdu/longbow-bodkin/internal/metrics"
)

func main() {
	cfg := config.Default()

	ops := flag.String("ops", strings.Join(cfg.Operations, ","), "comma-separated operations to sweep")
	count := flag.Int("count", cfg.Count, "evaluations per operation")
	seed := flag.Int64("seed", cfg.Seed, "random seed")
	maxReported := flag.Int("max-reported", cfg.MaxReported, "mismatches printed per operation")
	half := flag.Bool("half", true, "also run the exhaustive binary16 conversion sweep")
	metricsAddr := flag.String("metrics", "", "address to serve /metrics on (empty disables)")
	logLevel := flag.String("log-level", cfg.LogLevel, "log level")
	logFormat := flag.String("log-format", cfg.LogFormat, "log format (console or json)")
	flag.Parse()

	logger.Setup(*logLevel, *logFormat)
	log := logger.Log.Component("verify")

	cfg.Operations = strings.Split(*ops, ",")
	cfg.Count = *count
	cfg.Seed = *seed
	cfg.MaxReported = *maxReported
	if err := cfg.Validate(); err != nil {
		log.Error("bad configuration", "error", err)
		os.Exit(2)
	}

	if *metricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Error("metrics listener failed", "error", err)
			}
		}()
		log.Info("serving metrics", "addr", *metricsAddr)
	}

	failed := false

	for _, op := range cfg.Operations {
		res, err := harness.SweepBinary32(op, cfg.RoundingMode, cfg.Count, cfg.Seed, cfg.MaxReported)
		if err != nil {
			log.Error("sweep refused", "op", op, "error", err)
			failed = true
			continue
		}
		for _, m := range res.Reported {
			fmt.Println(m)
		}
		if res.Mismatched > 0 {
			failed = true
		}
	}

	if *half {
		res := harness.SweepHalfConversions(cfg.MaxReported)
		for _, m := range res.Reported {
			fmt.Println(m)
		}
		if res.Mismatched > 0 {
			failed = true
		}
	}

	log.Info("done", "comparisons", metrics.TotalComparisons(), "failed", failed)
	if failed {
		os.Exit(1)
	}
}
