package rest

import (
	"net/http"

	"github.com/lxc/incus-os/iscsi-exportd/api"
	"github.com/lxc/incus-os/iscsi-exportd/internal/rest/response"
)

// swagger:operation GET /1.0/nodes nodes nodes_get
//
//	Get the nodes
//
//	Returns the bare-metal nodes known to the inventory, as URLs or, with
//	recursion=1, as objects.
//
//	---
//	produces:
//	  - application/json
//	responses:
//	  "200":
//	    description: List of nodes
//	    schema:
//	      type: object
//	      properties:
//	        metadata:
//	          type: json
//	          example: ["/1.0/nodes/node-1"]
func (s *Server) apiNodes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		_ = response.NotImplemented(nil).Render(w)

		return
	}

	nodes, err := s.nodes.ListNodes(r.Context())
	if err != nil {
		_ = response.SmartError(err).Render(w)

		return
	}

	if isRecursive(r) {
		_ = response.SyncResponse(true, nodes).Render(w)

		return
	}

	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.ID)
	}

	_ = response.SyncResponse(true, urlList(r, "nodes", ids)).Render(w)
}

// swagger:operation PUT /1.0/nodes/{id} nodes nodes_put
//
//	Create or replace a node
//
//	Records the instance running on a node and the address its initiator
//	connects from.
//
//	---
//	consumes:
//	  - application/json
//	produces:
//	  - application/json
//	parameters:
//	  - in: body
//	    name: node
//	    required: true
//	    schema:
//	      type: object
//	      example: {"instance_uuid":"7c8a2ab0-38b5-4f6c-9b0e-56c4b5d1b0a1","provisioning_address":"10.0.1.15"}
//	responses:
//	  "200":
//	    $ref: "#/responses/EmptySyncResponse"
//	  "400":
//	    $ref: "#/responses/BadRequest"
func (s *Server) apiNodesEndpoint(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		node, err := s.nodes.GetNode(r.Context(), id)
		if err != nil {
			_ = response.SmartError(err).Render(w)

			return
		}

		_ = response.SyncResponse(true, node).Render(w)
	case http.MethodPut:
		req := api.NodePut{}

		err := decodeBody(r.Body, &req)
		if err != nil {
			_ = response.BadRequest(err).Render(w)

			return
		}

		err = s.nodes.PutNode(r.Context(), id, req)
		if err != nil {
			_ = response.SmartError(err).Render(w)

			return
		}

		_ = response.EmptySyncResponse.Render(w)
	case http.MethodDelete:
		err := s.nodes.DeleteNode(r.Context(), id)
		if err != nil {
			_ = response.SmartError(err).Render(w)

			return
		}

		_ = response.EmptySyncResponse.Render(w)
	default:
		// If none of the supported methods, return NotImplemented.
		_ = response.NotImplemented(nil).Render(w)
	}
}
