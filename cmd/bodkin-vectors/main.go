// bodkin-vectors generates test-vector corpora and moves them around:
// Arrow IPC files, C source tables, SMT-LIB encodings, and Arrow
// Flight serving and fetching.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/23skdu/longbow-bodkin/internal/config"
	"github.com/23skdu/longbow-bodkin/internal/logger"
	"github.com/23skdu/longbow-bodkin/internal/vectors"
)

func main() {
	formatName := flag.String("format", "binary32", "floating-point format")
	rmName := flag.String("rm", "RNE", "rounding mode")
	ops := flag.String("ops", "add,sub,mul,div,sqrt,fma", "comma-separated operations")
	count := flag.Int("count", 1000, "vectors per operation")
	seed := flag.Int64("seed", 1, "random seed")

	arrowOut := flag.String("out", "", "write the corpus to this Arrow IPC file")
	cOut := flag.String("c", "", "write the corpus as a C table to this file")
	smt2Dir := flag.String("smt2", "", "write per-operation SMT-LIB encodings into this directory")

	serve := flag.String("serve", "", "serve the corpus over Arrow Flight on this address")
	fetch := flag.String("fetch", "", "fetch a corpus from a Flight server at this address and recheck it")
	name := flag.String("name", "default", "corpus name for Flight serving and fetching")

	logLevel := flag.String("log-level", "INFO", "log level")
	logFormat := flag.String("log-format", "console", "log format (console or json)")
	flag.Parse()

	logger.Setup(*logLevel, *logFormat)
	log := logger.Log.Component("vectors")

	f, err := config.ParseFormat(*formatName)
	if err != nil {
		fatal(err)
	}
	rm, err := config.ParseRoundingMode(*rmName)
	if err != nil {
		fatal(err)
	}
	opList := strings.Split(*ops, ",")

	if *fetch != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		vecs, err := vectors.FetchCorpus(ctx, *fetch, *name)
		if err != nil {
			fatal(err)
		}
		bad, err := vectors.Recheck(vecs)
		if err != nil {
			fatal(err)
		}
		log.Info("fetched corpus", "addr", *fetch, "name", *name,
			"vectors", len(vecs), "stale", len(bad))
		if len(bad) > 0 {
			os.Exit(1)
		}
		return
	}

	vecs, err := vectors.Generate(f, opList, rm, *count, *seed)
	if err != nil {
		fatal(err)
	}
	log.Info("generated corpus", "vectors", len(vecs), "format", f.String(), "rm", rm.String())

	if *arrowOut != "" {
		if err := vectors.WriteArrowFile(*arrowOut, vecs); err != nil {
			fatal(err)
		}
		log.Info("wrote arrow file", "path", *arrowOut)
	}

	if *cOut != "" {
		cf, err := os.Create(*cOut)
		if err != nil {
			fatal(err)
		}
		if err := vectors.WriteCSource(cf, vecs); err != nil {
			cf.Close()
			fatal(err)
		}
		if err := cf.Close(); err != nil {
			fatal(err)
		}
		log.Info("wrote C table", "path", *cOut)
	}

	if *smt2Dir != "" {
		if err := os.MkdirAll(*smt2Dir, 0o755); err != nil {
			fatal(err)
		}
		for _, op := range opList {
			path := filepath.Join(*smt2Dir, fmt.Sprintf("%s_%d.smt2", op, f.PackedWidth()))
			sf, err := os.Create(path)
			if err != nil {
				fatal(err)
			}
			if err := vectors.WriteSMT2(sf, f, op); err != nil {
				sf.Close()
				fatal(err)
			}
			if err := sf.Close(); err != nil {
				fatal(err)
			}
			log.Info("wrote SMT-LIB encoding", "path", path)
		}
	}

	if *serve != "" {
		srv := vectors.NewFlightServer(map[string][]vectors.Vector{*name: vecs})
		if err := srv.Start(*serve); err != nil {
			fatal(err)
		}
		defer srv.Stop()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt)
		<-stop
		log.Info("shutting down")
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "bodkin-vectors:", err)
	os.Exit(1)
}
