// Package profiling serves pprof and runtime statistics on a separate,
// operator-only listener. Never mount it on the public router.
package profiling

import (
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/go-chi/chi/v5"

	"github.com/conduit-lang/drest/internal/web/response"
)

// Config holds profiling configuration
type Config struct {
	// Path is the URL prefix for profiling endpoints
	Path string
	// BlockRate is passed to runtime.SetBlockProfileRate; 0 leaves it off
	BlockRate int
	// MutexFraction is passed to runtime.SetMutexProfileFraction; 0 leaves it off
	MutexFraction int
}

// DefaultConfig returns the default profiling configuration
func DefaultConfig() Config {
	return Config{Path: "/debug/pprof"}
}

// Handler returns a router serving the pprof endpoints and GET <path>/stats
func Handler(config Config) http.Handler {
	if config.Path == "" {
		config.Path = DefaultConfig().Path
	}
	if config.BlockRate > 0 {
		runtime.SetBlockProfileRate(config.BlockRate)
	}
	if config.MutexFraction > 0 {
		runtime.SetMutexProfileFraction(config.MutexFraction)
	}

	router := chi.NewRouter()
	router.Route(config.Path, func(r chi.Router) {
		r.HandleFunc("/", pprof.Index)
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)
		for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
			r.Handle("/"+name, pprof.Handler(name))
		}
		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			response.RenderJSON(w, http.StatusOK, RuntimeStats())
		})
	})
	return router
}

// RuntimeStats returns goroutine, memory and GC counters
func RuntimeStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc":        m.Alloc,
			"total_alloc":  m.TotalAlloc,
			"sys":          m.Sys,
			"heap_objects": m.HeapObjects,
		},
		"gc": map[string]interface{}{
			"num_gc":         m.NumGC,
			"pause_total_ns": m.PauseTotalNs,
		},
		"num_cpu": runtime.NumCPU(),
	}
}
