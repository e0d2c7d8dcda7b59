package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/lxc/incus-os/iscsi-exportd/api"
	"github.com/lxc/incus-os/iscsi-exportd/internal/rest/response"
)

// swagger:operation GET /1.0/connector volumes volumes_get_connector
//
//	Get the volume connector
//
//	Returns the address, initiator name and hostname the volume service
//	needs to connect a volume to this host.
//
//	---
//	produces:
//	  - application/json
//	parameters:
//	  - in: query
//	    name: instance
//	    description: Instance UUID
//	    type: string
//	    required: true
//	responses:
//	  "200":
//	    description: Volume connector
//	    schema:
//	      type: object
//	      properties:
//	        metadata:
//	          type: json
//	          example: {"ip":"10.0.0.2","initiator":"iqn.1993-08.org.debian:01:abc","host":"compute-1"}
//	  "400":
//	    $ref: "#/responses/BadRequest"
func (s *Server) apiConnector(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	instanceUUID := r.URL.Query().Get("instance")

	_, err := uuid.Parse(instanceUUID)
	if err != nil {
		_ = response.BadRequest(errors.New("invalid instance UUID")).Render(w)

		return
	}

	connector := s.controller.GetVolumeConnector(r.Context(), api.Instance{UUID: instanceUUID})

	_ = response.SyncResponse(true, connector).Render(w)
}

// swagger:operation POST /1.0/volumes/:attach volumes volumes_post_attach
//
//	Attach a volume
//
//	Connects the volume to this host and exports it to the node running the
//	instance.
//
//	---
//	consumes:
//	  - application/json
//	produces:
//	  - application/json
//	responses:
//	  "200":
//	    $ref: "#/responses/EmptySyncResponse"
//	  "400":
//	    $ref: "#/responses/BadRequest"
//	  "403":
//	    $ref: "#/responses/Forbidden"
//	  "404":
//	    $ref: "#/responses/NotFound"
//	  "500":
//	    $ref: "#/responses/InternalServerError"
func (s *Server) apiVolumesAttach(w http.ResponseWriter, r *http.Request) {
	s.volumeAction(w, r, s.controller.AttachVolume)
}

// swagger:operation POST /1.0/volumes/:detach volumes volumes_post_detach
//
//	Detach a volume
//
//	Removes the export of the volume, then disconnects it from this host.
//
//	---
//	consumes:
//	  - application/json
//	produces:
//	  - application/json
//	responses:
//	  "200":
//	    $ref: "#/responses/EmptySyncResponse"
//	  "400":
//	    $ref: "#/responses/BadRequest"
//	  "500":
//	    $ref: "#/responses/InternalServerError"
func (s *Server) apiVolumesDetach(w http.ResponseWriter, r *http.Request) {
	s.volumeAction(w, r, s.controller.DetachVolume)
}

type volumeFunc func(ctx context.Context, conn api.Connection, instance api.Instance, mountpoint string) error

func (*Server) volumeAction(w http.ResponseWriter, r *http.Request, action volumeFunc) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	req := &api.VolumePost{}

	err := decodeBody(r.Body, req)
	if err != nil {
		_ = response.BadRequest(err).Render(w)

		return
	}

	err = validateVolumePost(req)
	if err != nil {
		_ = response.BadRequest(err).Render(w)

		return
	}

	err = action(r.Context(), req.Connection, req.Instance, req.Mountpoint)
	if err != nil {
		_ = response.SmartError(err).Render(w)

		return
	}

	_ = response.EmptySyncResponse.Render(w)
}

func validateVolumePost(req *api.VolumePost) error {
	_, err := uuid.Parse(req.Instance.UUID)
	if err != nil {
		return errors.New("invalid instance UUID")
	}

	if req.Instance.Name == "" {
		return errors.New("missing instance name")
	}

	if req.Mountpoint == "" {
		return errors.New("missing mount point")
	}

	if req.Connection.DriverVolumeType == "" {
		return errors.New("missing driver volume type")
	}

	return nil
}
