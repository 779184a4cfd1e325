package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jet/bwtest/client"
	"github.com/jet/bwtest/config"
	"github.com/jet/bwtest/log"
	"github.com/jet/bwtest/metrics"
	"github.com/jet/bwtest/version"
)

func main() {
	vinfo := version.GetInfo()
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(vinfo.Banner("bwtest-client"))
		os.Exit(0)
	}

	logCfg, err := config.LogConfigFromEnvironment(client.Role)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	logger = logger.WithFields(map[string]interface{}{"role": client.Role})
	logger.WithFields(vinfo.Fields()).Logln("bwtest client starting")

	cfg, err := config.ClientFromEnvironment()
	if err != nil {
		logger.Error(err, "unable to load client configuration from environment variables")
		fmt.Println(err)
		os.Exit(1)
	}
	m := &metrics.Metrics{
		Namespace: "bwtest",
		Labels:    map[string]string{"role": "client"},
		Interval:  cfg.Transfer.Meter.IntervalLength,
	}
	m.Init()
	if addr := config.MetricsAddress(); addr != "" {
		go func() {
			endpoint := config.MetricsEndpoint()
			mux := http.NewServeMux()
			mux.Handle(endpoint, m.Handler())
			srv := &http.Server{
				Addr:    addr,
				Handler: mux,
			}
			logger.Logf("metrics on http://%s%s", addr, endpoint)
			logger.Error(srv.ListenAndServe(), "error closing http server")
		}()
	}

	cfg.Out = os.Stdout
	cfg.Logger = logger
	cfg.Observer = m
	sum, err := client.Run(context.Background(), cfg)
	if err != nil {
		logger.Error(err, "client run failed")
		fmt.Println(err)
		os.Exit(1)
	}
	logger.WithFields(map[string]interface{}{
		"total_bytes": sum.TotalBytes,
		"avg_mbps":    sum.AvgMbps,
		"reason":      string(sum.Reason),
	}).Logln("bwtest client exiting")
}
