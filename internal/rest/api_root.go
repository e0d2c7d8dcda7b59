package rest

import (
	"net/http"

	"github.com/lxc/incus-os/iscsi-exportd/api"
	"github.com/lxc/incus-os/iscsi-exportd/internal/rest/response"
)

func (*Server) apiRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path != "/" {
		_ = response.NotFound(nil).Render(w)

		return
	}

	_ = response.SyncResponse(true, []string{"/1.0"}).Render(w)
}

// swagger:operation GET /1.0 server server_get
//
//	Get the server environment
//
//	---
//	produces:
//	  - application/json
//	responses:
//	  "200":
//	    description: Server environment
func (s *Server) apiRoot10(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	config := s.controller.Config()

	resp := api.Server{
		Environment: api.ServerEnvironment{
			Host:          config.Host,
			IP:            config.MyIP,
			IQNPrefix:     config.IQNPrefix,
			UnsafeISCSI:   config.UnsafeISCSI,
			VolumeDrivers: s.drivers,
		},
	}

	_ = response.SyncResponse(true, resp).Render(w)
}
