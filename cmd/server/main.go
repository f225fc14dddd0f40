// Command server runs a standalone matchcore matching engine behind a TCP
// listener, in the manner of the teacher repository's cmd/main.go: wire up
// the registry, hand it to the transport layer, run until signalled.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"matchcore/internal/clock"
	"matchcore/internal/metrics"
	"matchcore/internal/registry"
	"matchcore/internal/transport"
)

func main() {
	address := flag.String("address", "0.0.0.0", "address to bind the matching engine to")
	port := flag.Int("port", 9001, "TCP port for the order protocol")
	metricsPort := flag.Int("metrics-port", 9090, "port to serve Prometheus metrics on, 0 to disable")
	symbols := flag.String("symbols", "AAPL,MSFT,GOOG", "comma-separated list of symbols to register at startup")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reg := registry.New(clock.System{})
	for _, sym := range splitSymbols(*symbols) {
		reg.AddSymbol(sym)
		log.Info().Str("symbol", sym).Msg("registered symbol")
	}

	collectors := metrics.NewCollectors()
	if *metricsPort > 0 {
		promReg := prometheus.NewRegistry()
		collectors.MustRegister(promReg)
		go serveMetrics(*metricsPort, promReg)
	}

	srv := transport.New(*address, *port, reg, collectors)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func serveMetrics(port int, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	log.Info().Str("address", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics server exited")
	}
}

func splitSymbols(raw string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				out = append(out, raw[start:i])
			}
			start = i + 1
		}
	}
	return out
}
