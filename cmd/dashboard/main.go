package main

import (
	"database/sql"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/vdash/vehicle-dashboard/dashboard"
	"go.uber.org/zap"
)

func main() {
	var c *dashboard.Config
	var err error

	if len(os.Args) < 2 {
		// A missing config is not fatal; an explicitly given path must parse.
		log.Printf("warning: config file location not specified, using defaults")
		c = &dashboard.Config{Thresholds: dashboard.DefaultThresholds()}
	} else {
		c, err = dashboard.LoadConfig(os.Args[1])
		if err != nil {
			log.Fatalf("error: %v", err)
		}
	}

	// Set up logger
	var logger *zap.Logger
	if c.Env == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Optional history persistence
	var db *sql.DB
	if c.MySQL.DSN != "" {
		db, err = dashboard.NewDbConnection(c.MySQL)
		if err != nil {
			log.Fatalf("error: %v", err)
		}
		defer db.Close()
	}

	sinks := []dashboard.Sink{dashboard.NewConsoleRenderer(os.Stdout)}

	var server *dashboard.Server
	if c.HTTP.Bind != "" {
		server = dashboard.NewServer(c.HTTP, sugar)
		server.Start()
		defer server.Shutdown()
		sinks = append(sinks, server)
	}

	// Select the telemetry source: AMQP when configured, simulation
	// otherwise
	var source dashboard.Source
	if c.AMQP.DSN != "" {
		source = dashboard.NewSubscriber(c.AMQP, c.Topics, sugar)
	} else {
		sugar.Info("dashboard: no AMQP source configured, using simulator")
		source = dashboard.NewSimulator(c.Simulator, sugar)
	}

	d := dashboard.NewDashboard(*c, source, sinks, db, sugar)

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		exit := make(chan os.Signal, 1)
		signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)

		<-exit

		sugar.Info("dashboard: shutting down")
		wg.Done()
	}()

	d.Run(&wg)
	sugar.Info("dashboard: shutdown OK")
}
