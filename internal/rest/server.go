// Package rest serves the daemon's REST API on a unix socket.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lxc/incus-os/iscsi-exportd/internal/exports"
	"github.com/lxc/incus-os/iscsi-exportd/internal/inventory"
)

// Server holds the internal state of the REST API server.
type Server struct {
	socketPath string
	controller *exports.Controller
	nodes      *inventory.Store
	drivers    []string
	metrics    http.Handler
}

// NewServer returns a REST API server object.
func NewServer(_ context.Context, socketPath string, controller *exports.Controller, nodes *inventory.Store, drivers []string, metrics http.Handler) (*Server, error) {
	// Define the struct.
	server := Server{
		socketPath: socketPath,
		controller: controller,
		nodes:      nodes,
		drivers:    drivers,
		metrics:    metrics,
	}

	// Create runtime path if missing.
	err := os.Mkdir(filepath.Dir(socketPath), 0o700)
	if err != nil && !os.IsExist(err) {
		return nil, err
	}

	return &server, nil
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("/", s.apiRoot)
	router.HandleFunc("/1.0", s.apiRoot10)
	router.HandleFunc("/1.0/block-devices", s.apiBlockDevices)
	router.HandleFunc("/1.0/connector", s.apiConnector)
	router.HandleFunc("/1.0/debug/tgtadm", s.apiDebugTgtadm)
	router.HandleFunc("/1.0/exports", s.apiExports)
	router.HandleFunc("/1.0/exports/:audit", s.apiExportsAudit)
	router.HandleFunc("/1.0/exports/{tid}", s.apiExportsEndpoint)
	router.HandleFunc("/1.0/nodes", s.apiNodes)
	router.HandleFunc("/1.0/nodes/{id}", s.apiNodesEndpoint)
	router.HandleFunc("/1.0/volumes/:attach", s.apiVolumesAttach)
	router.HandleFunc("/1.0/volumes/:detach", s.apiVolumesDetach)

	if s.metrics != nil {
		router.Handle("/metrics", s.metrics)
	}

	return router
}

// Serve starts the REST API server and stops it once ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	// Setup listener.
	_ = os.Remove(s.socketPath)
	lc := &net.ListenConfig{}

	listener, err := lc.Listen(ctx, "unix", s.socketPath)
	if err != nil {
		return err
	}

	// Setup server.
	server := &http.Server{
		Handler: s.Handler(),

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	err = server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}
