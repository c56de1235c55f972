package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collab-server/collab"
	"collab-server/handlers/api/rooms"
	"collab-server/handlers/websocket"
	"collab-server/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func waitForShutdown(ioo *socketio.Server, cancel context.CancelFunc) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	cancel()
	ioo.Close(nil)
	os.Exit(0)
}

func main() {
	logLevel := flag.String("loglevel", "info", "Set the logging level: debug, info, warn, error, fatal, panic")
	listenAddr := flag.String("listen", ":3002", "Set the server listen address")
	presenceTTL := flag.Duration("presence-ttl", 60*time.Second, "Evict presence entries not seen for this long")
	sweepInterval := flag.Duration("sweep-interval", 30*time.Second, "How often the staleness sweeper runs")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)

	activityStore := stores.GetStore()

	registry := collab.NewRegistry()
	router := collab.NewRouter(registry)
	broadcaster := collab.NewBroadcaster(router)
	manager := collab.NewManager(registry, router, broadcaster, activityStore)
	sweeper := collab.NewSweeper(registry, activityStore, *presenceTTL, *sweepInterval)

	ctx, cancel := context.WithCancel(context.Background())
	go sweeper.Run(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	corsOptions := cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}

			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}

			switch parsed.Scheme {
			case "http", "https":
				switch parsed.Hostname() {
				case "localhost", "127.0.0.1", "[::1]":
					return true
				}
			}

			return false
		},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	r.Use(cors.Handler(corsOptions))

	r.Get("/api/rooms", rooms.HandleList(registry, activityStore))
	r.Route("/api/rooms/{roomKey}", func(r chi.Router) {
		r.Get("/roster", rooms.HandleRoster(registry))
		r.Get("/joins", rooms.HandleListJoins(activityStore))
	})

	ioo := websocket.SetupSocketIO(manager)
	r.Handle("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithFields(logrus.Fields{
		"addr":           *listenAddr,
		"presence_ttl":   *presenceTTL,
		"sweep_interval": *sweepInterval,
	}).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddr, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo, cancel)
}
