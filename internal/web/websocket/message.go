package websocket

import (
	"encoding/json"

	"github.com/conduit-lang/drest/internal/web/response"
)

// Reply types
const (
	ReplyTree  = "tree"
	ReplyError = "error"
)

// Request is one translation request sent by a live client
type Request struct {
	ID    string `json:"id,omitempty"`
	Query string `json:"query"`
}

// Reply answers one Request. ID echoes the request id.
type Reply struct {
	ID     string                  `json:"id,omitempty"`
	Type   string                  `json:"type"`
	Tree   json.RawMessage         `json:"tree,omitempty"`
	Cached bool                    `json:"cached,omitempty"`
	Status int                     `json:"status,omitempty"`
	Error  *response.ErrorResponse `json:"error,omitempty"`
}

func errorReply(id string, status int, body *response.ErrorResponse) Reply {
	return Reply{ID: id, Type: ReplyError, Status: status, Error: body}
}
