package fileserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// FileServer exposes the converted images over plain HTTP. The reverse
// proxy in front of the service points /static/ here.
type FileServer struct {
	port int
	path string // volume root, same one Storage writes to
	log  *slog.Logger
	srv  *http.Server
}

func NewFileServer(port int, path string, log *slog.Logger) *FileServer {
	s := &FileServer{port: port, path: path, log: log}
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%v", port),
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *FileServer) Run() error {
	s.log.Info("fileserver listening", "port", s.port, "root", s.path)
	return s.srv.ListenAndServe()
}

func (s *FileServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *FileServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	fs := http.FileServer(http.Dir(s.path))
	mux.Handle("GET /static/", http.StripPrefix("/static", fs))
	return mux
}
