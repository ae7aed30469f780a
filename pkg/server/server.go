// Package server exposes installs, instances and task progress over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"PojClient/internal/errs"
	"PojClient/internal/logging"
	"PojClient/internal/models"
	"PojClient/pkg/instance"
	"PojClient/pkg/launch"
	"PojClient/pkg/metaAPI"
	"PojClient/pkg/tasks"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

func New(installer *instance.Installer, manager *tasks.Manager, sink launch.Sink) *Server {
	s := &Server{
		Router:    mux.NewRouter(),
		Meta:      installer.Meta,
		Tasks:     manager,
		Installer: installer,
		Sink:      sink,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{ProtoSubprotocol},
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	api := s.Router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/versions", s.handleVersions).Methods(http.MethodGet)
	api.HandleFunc("/loaders/{loader}", s.handleLoaders).Methods(http.MethodGet)
	api.HandleFunc("/instances", s.handleListInstances).Methods(http.MethodGet)
	api.HandleFunc("/instances", s.handleCreateInstance).Methods(http.MethodPost)
	api.HandleFunc("/instances/{name}", s.handleGetInstance).Methods(http.MethodGet)
	api.HandleFunc("/instances/{name}", s.handleDeleteInstance).Methods(http.MethodDelete)
	api.HandleFunc("/instances/{name}/launch", s.handleLaunch).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", s.handleTaskStatus).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", s.handleCancelTask).Methods(http.MethodDelete)
	s.Router.HandleFunc("/ws/tasks/{id}", s.handleTaskStream)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logging.GlobalLogger.Infof("Server starting on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.GlobalLogger.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.GlobalLogger.Warnf("Writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), models.ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrUnsupportedModloader):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrManifest), errors.Is(err, errs.ErrNetwork),
		errors.Is(err, errs.ErrIntegrity), errors.Is(err, errs.ErrRetryExhausted):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	index, err := s.Meta.GetVersionIndex(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, index)
}

func (s *Server) handleLoaders(w http.ResponseWriter, r *http.Request) {
	loader, err := metaAPI.ParseModloader(mux.Vars(r)["loader"])
	if err != nil {
		writeError(w, err)
		return
	}
	if loader == metaAPI.None {
		badRequest(w, "no loader list for vanilla")
		return
	}
	list, err := s.Meta.GetLoaderList(r.Context(), loader)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	var req models.InstallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if err := instance.ValidateName(req.Name); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Version == "" {
		badRequest(w, "version is required")
		return
	}
	if _, err := metaAPI.ParseModloader(req.Modloader); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.Tasks.Start(req))
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	names, err := instance.List(s.Installer.Layout.GameDir)
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	d, err := instance.Load(mux.Vars(r)["name"], s.Installer.Layout.GameDir)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	if err := instance.Delete(mux.Vars(r)["name"], s.Installer.Layout.GameDir); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	var req models.LaunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	acct := instance.Account{Username: req.Username, UUID: req.UUID, AccessToken: req.AccessToken, UserType: req.UserType}
	args, err := s.Installer.Launch(r.Context(), mux.Vars(r)["name"], acct, s.Sink, req.SkipModSync)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.LaunchResponse{Args: args})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := s.Tasks.Status(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "unknown task"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.Tasks.Cancel(id) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "unknown task"})
		return
	}
	status, _ := s.Tasks.Status(id)
	writeJSON(w, http.StatusAccepted, status)
}
