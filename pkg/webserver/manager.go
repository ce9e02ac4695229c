package webserver

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

type Manager struct {
	r            *mux.Router
	addr         string
	resourcesDir string
}

func NewManager(addr, resourcesDir string) *Manager {
	m := &Manager{
		r:            mux.NewRouter(),
		addr:         addr,
		resourcesDir: resourcesDir,
	}

	m.rootHandlers()
	return m
}

// Router is where the API, livemap and static resources are mounted.
func (m *Manager) Router() *mux.Router {
	return m.r
}

func (m *Manager) GetRouter(prefix string) *mux.Router {
	return m.r.NewRoute().PathPrefix(prefix).Subrouter()
}

func (m *Manager) rootHandlers() {
	fs := http.FileServer(http.Dir(m.resourcesDir))
	resStr := "/resources/"

	m.r.PathPrefix(resStr).Handler(http.StripPrefix(resStr, fs))
}

// Debug logs every registered route.
func (m *Manager) Debug() {
	_ = m.r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"ANY"}
		}
		log.Printf("ROUTE: %s %s\n", strings.Join(methods, ","), pathTemplate)
		return nil
	})
}

// Serve blocks until an interrupt arrives or ctx is done, then shuts the
// server down.
func (m *Manager) Serve(ctx context.Context) {
	srv := &http.Server{
		Addr:         m.addr,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      m.r,
	}

	go func() {
		log.Printf("webserver listening on %s\n", m.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Println(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	select {
	case <-c:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error shutting down webserver: %s\n", err)
	}
	log.Println("webserver shutting down")
}
