// Package planserver exposes a scheduled block over HTTP for inspection,
// grounded on the teacher's monitoring.Monitor web server.
package planserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/sarchlab/stripesched/internal/stripe"
)

// Server wraps a scheduled block and serves it as JSON.
type Server struct {
	block         *stripe.Block
	portNumber    int
	openInBrowser bool

	mu sync.RWMutex
}

// Builder builds a Server with a fluent, value-receiver With* API, mirroring
// mem/cache.Builder rather than functional options.
type Builder struct {
	portNumber    int
	openInBrowser bool
}

// MakeBuilder returns a Builder with its zero-value defaults.
func MakeBuilder() Builder {
	return Builder{}
}

// WithPortNumber sets the TCP port the server listens on. A value below
// 1024 is rejected in favor of an OS-assigned port, matching the teacher's
// guard against colliding with a well-known port.
func (b Builder) WithPortNumber(port int) Builder {
	if port != 0 && port < 1024 {
		fmt.Fprintf(os.Stderr,
			"planserver: port %d is not allowed, using a random port instead\n", port)
		port = 0
	}
	b.portNumber = port
	return b
}

// WithOpenInBrowser makes Serve open the /block view in the user's default
// browser once the listener is up.
func (b Builder) WithOpenInBrowser(open bool) Builder {
	b.openInBrowser = open
	return b
}

// Build wraps block for serving. block is expected to already be scheduled;
// Server never mutates it.
func (b Builder) Build(block *stripe.Block) *Server {
	return &Server{block: block, portNumber: b.portNumber, openInBrowser: b.openInBrowser}
}

// router builds the mux.Router serving s, split out from Serve so tests can
// drive it directly with httptest instead of binding a real socket.
func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/block", s.handleBlock)
	r.HandleFunc("/refs", s.handleRefs)
	r.HandleFunc("/stmt/{index}", s.handleStatement)
	r.HandleFunc("/profile", s.handleProfile)
	r.HandleFunc("/resources", s.handleResources)
	return r
}

// Serve starts the HTTP server and blocks until it exits or ctx-independent
// listen error occurs.
func (s *Server) Serve() error {
	r := s.router()

	addr := ":0"
	if s.portNumber > 0 {
		addr = ":" + strconv.Itoa(s.portNumber)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("planserver: listen: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "planserver: serving %s at %s\n", s.block.Name, url)

	if s.openInBrowser {
		if err := browser.OpenURL(url + "/block"); err != nil {
			fmt.Fprintf(os.Stderr, "planserver: could not open browser: %v\n", err)
		}
	}

	return http.Serve(listener, r)
}

// refinementView and statementView are JSON-friendly projections of the IR:
// stripe.Statement.Deps holds pointers, which don't marshal usefully, so
// each statement is rendered with its dependencies as indices into the
// flattened statement list instead.
type refinementView struct {
	Dir      string `json:"dir"`
	From     string `json:"from"`
	Into     string `json:"into"`
	Location string `json:"location"`
}

type statementView struct {
	Index   int      `json:"index"`
	Kind    string   `json:"kind"`
	Name    string   `json:"name"`
	From    string   `json:"from,omitempty"`
	Into    string   `json:"into,omitempty"`
	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
	Deps    []int    `json:"deps,omitempty"`
}

type blockView struct {
	Name  string           `json:"name"`
	Refs  []refinementView `json:"refs"`
	Stmts []statementView  `json:"statements"`
}

func (s *Server) snapshot() (blockView, map[*stripe.Statement]int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[*stripe.Statement]int)
	var stmts []*stripe.Statement
	s.block.Body.Each(func(it stripe.StatementIt) {
		stmt := stripe.StatementAt(it)
		index[stmt] = len(stmts)
		stmts = append(stmts, stmt)
	})

	view := blockView{Name: s.block.Name}
	for _, ref := range s.block.Refs {
		view.Refs = append(view.Refs, refinementView{
			Dir:      ref.Dir.String(),
			From:     ref.From,
			Into:     ref.Into,
			Location: ref.Location.Name,
		})
	}
	sort.Slice(view.Refs, func(i, j int) bool { return view.Refs[i].Into < view.Refs[j].Into })

	for i, stmt := range stmts {
		sv := statementView{
			Index:   i,
			Kind:    kindName(stmt.Kind),
			Name:    stmt.Name,
			From:    stmt.From,
			Into:    stmt.Into,
			Inputs:  stmt.Inputs,
			Outputs: stmt.Outputs,
		}
		for _, dep := range stmt.Deps {
			sv.Deps = append(sv.Deps, index[dep])
		}
		view.Stmts = append(view.Stmts, sv)
	}

	return view, index
}

func kindName(k stripe.StatementKind) string {
	switch k {
	case stripe.KindLoad:
		return "load"
	case stripe.KindStore:
		return "store"
	case stripe.KindSpecial:
		return "special"
	case stripe.KindIntrinsic:
		return "intrinsic"
	case stripe.KindConstant:
		return "constant"
	case stripe.KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

func (s *Server) handleBlock(w http.ResponseWriter, _ *http.Request) {
	view, _ := s.snapshot()
	writeJSON(w, view)
}

func (s *Server) handleRefs(w http.ResponseWriter, _ *http.Request) {
	view, _ := s.snapshot()
	writeJSON(w, view.Refs)
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	idxStr := mux.Vars(r)["index"]
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		http.Error(w, "planserver: bad index", http.StatusBadRequest)
		return
	}

	view, _ := s.snapshot()
	if idx < 0 || idx >= len(view.Stmts) {
		http.Error(w, "planserver: no such statement", http.StatusNotFound)
		return
	}
	writeJSON(w, view.Stmts[idx])
}

// resourceView reports the server process's own CPU and memory footprint,
// grounded on the teacher's monitoring.Monitor.listResources.
type resourceView struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemoryRSS  uint64  `json:"memory_rss_bytes"`
}

func (s *Server) handleResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceView{CPUPercent: cpuPercent, MemoryRSS: memInfo.RSS})
}

// handleProfile takes a one-second CPU profile of the server itself and
// returns it as JSON, grounded on the teacher's monitoring.Monitor.collectProfile.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	duration := time.Second
	if raw := r.URL.Query().Get("seconds"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			duration = time.Duration(n) * time.Second
		}
	}

	buf := bytes.NewBuffer(nil)
	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	time.Sleep(duration)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
