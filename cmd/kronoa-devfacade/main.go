// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Command kronoa-devfacade is a read-only HTTP bridge over a Kronoa
// repository, for exercising the wire contract a storage consumer would
// drive during development. It carries no authentication, TLS, or rate
// limiting: it is a development aid, not a production gateway.
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/kstore"
	"github.com/codelynx/kronoa/pkg/kstore/localfs"
	"github.com/codelynx/kronoa/pkg/publish"
)

func main() {
	var root, addr string
	flag.StringVar(&root, "root", "./.kronoa", "repository root directory")
	flag.StringVar(&addr, "addr", ":8088", "listen address")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	backend, err := localfs.New(root)
	if err != nil {
		logger.Fatal("open backend", zap.Error(err))
	}
	editions := edition.NewStore(backend)
	pub := publish.NewMachine(backend, editions)

	srv := &server{backend: backend, editions: editions, publish: pub, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/health", srv.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/storage/read", srv.handleStorageRead).Methods(http.MethodGet)
	router.HandleFunc("/storage/exists", srv.handleStorageExists).Methods(http.MethodGet)
	router.HandleFunc("/storage/list", srv.handleStorageList).Methods(http.MethodGet)
	router.HandleFunc("/{label}/{path:.*}", srv.handleLabelRead).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(logger, router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("listening", zap.String("addr", addr), zap.String("root", root))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("serve", zap.Error(err))
	}
}

// server holds the handles every route needs. It never mutates the
// backend: this facade is read-only by construction, not by convention.
type server struct {
	backend  kstore.Backend
	editions *edition.Store
	publish  *publish.Machine
	logger   *zap.Logger
}

func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
