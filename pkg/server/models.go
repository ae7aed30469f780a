package server

import (
	"PojClient/pkg/instance"
	"PojClient/pkg/launch"
	"PojClient/pkg/metaAPI"
	"PojClient/pkg/tasks"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// ProtoSubprotocol selects binary protobuf frames on the progress stream.
const ProtoSubprotocol = "proto"

type Server struct {
	Router    *mux.Router
	Meta      *metaAPI.Client
	Tasks     *tasks.Manager
	Installer *instance.Installer
	Sink      launch.Sink

	upgrader websocket.Upgrader
}
