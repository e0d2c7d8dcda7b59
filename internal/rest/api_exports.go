package rest

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/lxc/incus-os/iscsi-exportd/internal/rest/response"
)

// swagger:operation GET /1.0/exports exports exports_get
//
//	Get the exports
//
//	Returns the targets reported by the target daemon, as URLs or, with
//	recursion=1, as objects.
//
//	---
//	produces:
//	  - application/json
//	responses:
//	  "200":
//	    description: List of targets
//	    schema:
//	      type: object
//	      properties:
//	        metadata:
//	          type: json
//	          example: ["/1.0/exports/1","/1.0/exports/2"]
//	  "500":
//	    $ref: "#/responses/InternalServerError"
func (s *Server) apiExports(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	list, err := s.controller.ListTargets(r.Context())
	if err != nil {
		_ = response.SmartError(err).Render(w)

		return
	}

	if isRecursive(r) {
		_ = response.SyncResponse(true, list).Render(w)

		return
	}

	ids := make([]string, 0, len(list))
	for _, target := range list {
		ids = append(ids, strconv.Itoa(target.ID))
	}

	_ = response.SyncResponse(true, urlList(r, "exports", ids)).Render(w)
}

func (s *Server) apiExportsEndpoint(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	tid, err := strconv.Atoi(r.PathValue("tid"))
	if err != nil || tid < 1 {
		_ = response.BadRequest(errors.New("invalid target ID")).Render(w)

		return
	}

	target, found, err := s.controller.GetTarget(r.Context(), tid)
	if err != nil {
		_ = response.SmartError(err).Render(w)

		return
	}

	if !found {
		_ = response.NotFound(nil).Render(w)

		return
	}

	_ = response.SyncResponse(true, target).Render(w)
}

// swagger:operation POST /1.0/exports/:audit exports exports_post_audit
//
//	Audit the exports
//
//	Checks that the backing store of every managed export still exists.
//
//	---
//	produces:
//	  - application/json
//	responses:
//	  "200":
//	    description: Audit report
//	  "500":
//	    $ref: "#/responses/InternalServerError"
func (s *Server) apiExportsAudit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	report, err := s.controller.Audit(r.Context())
	if err != nil {
		_ = response.SmartError(err).Render(w)

		return
	}

	_ = response.SyncResponse(true, report).Render(w)
}

func (s *Server) apiBlockDevices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	devices, err := s.controller.ListBlockDevices(r.Context())
	if err != nil {
		_ = response.SmartError(err).Render(w)

		return
	}

	_ = response.SyncResponse(true, devices).Render(w)
}

// swagger:operation GET /1.0/debug/tgtadm debug debug_get_tgtadm
//
//	Get the target daemon status
//
//	Returns the unparsed output of "tgtadm --mode target --op show".
//
//	---
//	produces:
//	  - text/plain
//	responses:
//	  "200":
//	    description: Target daemon status
//	  "500":
//	    $ref: "#/responses/InternalServerError"
func (s *Server) apiDebugTgtadm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	raw, err := s.controller.RawStatus(r.Context())
	if err != nil {
		_ = response.SmartError(err).Render(w)

		return
	}

	compress := slices.ContainsFunc(strings.Split(r.Header.Get("Accept-Encoding"), ","), func(encoding string) bool {
		name, _, _ := strings.Cut(strings.TrimSpace(encoding), ";")

		return name == "gzip"
	})

	_ = response.SyncResponsePlain(true, compress, raw).Render(w)
}
