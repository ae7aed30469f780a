package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"PojClient/internal/logging"
	"PojClient/internal/models"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// encodeFrame renders a status as a websocket frame: JSON text by default,
// a binary google.protobuf.Struct when the proto subprotocol was negotiated.
func encodeFrame(subprotocol string, status models.TaskStatus) (int, []byte, error) {
	data, err := json.Marshal(status)
	if err != nil {
		return 0, nil, err
	}
	if subprotocol != ProtoSubprotocol {
		return websocket.TextMessage, data, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return 0, nil, err
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return 0, nil, fmt.Errorf("building status struct: %w", err)
	}
	payload, err := proto.Marshal(msg)
	if err != nil {
		return 0, nil, err
	}
	return websocket.BinaryMessage, payload, nil
}

// DecodeProtoFrame turns a binary frame back into its fields.
func DecodeProtoFrame(payload []byte) (map[string]any, error) {
	var msg structpb.Struct
	if err := proto.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	return msg.AsMap(), nil
}

// handleTaskStream pushes a status frame on every progress change and a last
// one when the task finishes.
func (s *Server) handleTaskStream(w http.ResponseWriter, r *http.Request) {
	task, ok := s.Tasks.Get(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "unknown task"})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.GlobalLogger.Warnf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	subprotocol := conn.Subprotocol()

	// Reads only detect the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(status models.TaskStatus) bool {
		kind, payload, err := encodeFrame(subprotocol, status)
		if err != nil {
			logging.GlobalLogger.Warnf("Encoding task frame: %v", err)
			return false
		}
		if err := conn.WriteMessage(kind, payload); err != nil {
			logging.GlobalLogger.Debugf("Task stream closed: %v", err)
			return false
		}
		return true
	}

	updates := task.Progress.Subscribe()
	if !send(task.Status()) {
		return
	}
	for {
		select {
		case <-task.Done():
			if send(task.Status()) {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "task finished"))
			}
			return
		case _, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if !send(task.Status()) {
				return
			}
		case <-gone:
			return
		}
	}
}
