package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jet/bwtest/config"
	"github.com/jet/bwtest/log"
	"github.com/jet/bwtest/metrics"
	"github.com/jet/bwtest/server"
	"github.com/jet/bwtest/version"
)

func main() {
	vinfo := version.GetInfo()
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(vinfo.Banner("bwtest-server"))
		os.Exit(0)
	}

	logCfg, err := config.LogConfigFromEnvironment(server.Role)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	logger = logger.WithFields(map[string]interface{}{"role": server.Role})
	logger.WithFields(vinfo.Fields()).Logln("bwtest server starting")

	cfg, addr, err := config.ServerFromEnvironment()
	if err != nil {
		logger.Error(err, "unable to load server configuration from environment variables")
		fmt.Println(err)
		os.Exit(1)
	}
	m := &metrics.Metrics{
		Namespace: "bwtest",
		Labels:    map[string]string{"role": "server"},
		Interval:  cfg.Transfer.Meter.IntervalLength,
	}
	m.Init()
	if maddr := config.MetricsAddress(); maddr != "" {
		go func() {
			endpoint := config.MetricsEndpoint()
			mux := http.NewServeMux()
			mux.Handle(endpoint, m.Handler())
			srv := &http.Server{
				Addr:    maddr,
				Handler: mux,
			}
			logger.Logf("metrics on http://%s%s", maddr, endpoint)
			logger.Error(srv.ListenAndServe(), "error closing http server")
		}()
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error(err, "listen failed")
		fmt.Println(err)
		os.Exit(1)
	}
	cfg.Out = os.Stdout
	cfg.Logger = logger
	cfg.Observer = m
	srv := server.New(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		// a second signal terminates the process
		signal.Stop(sigCh)
		logger.Logf("%v received, stopping after the current session (at most %v)", sig, server.DefaultShutdownGrace)
		logger.Error(srv.Shutdown(server.DefaultShutdownGrace), "error shutting down server")
	}()

	if err := srv.Serve(listener); err != nil {
		logger.Error(err, "server stopped with an error")
		fmt.Println(err)
		os.Exit(1)
	}
	logger.Logln("bwtest server exiting")
}
