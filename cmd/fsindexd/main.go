// Command fsindexd exposes a Facade over HTTP: a thin, token-gated
// front end over the concurrent file index, watcher, grep, and batch I/O
// packages.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fsindex/fsindex/internal/facade"
	"github.com/fsindex/fsindex/internal/fserrors"
	"github.com/fsindex/fsindex/internal/grep"
)

type connInfo struct {
	Port  int    `json:"port"`
	Token string `json:"token"`
	Root  string `json:"root"`
}

func randToken() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func main() {
	root := flag.String("root", ".", "root directory to index and serve")
	addr := flag.String("http", "127.0.0.1:0", "HTTP listen address (the default binds loopback; other addresses are used as given)")
	autoWatch := flag.Bool("auto-watch", true, "watch root for changes and keep the index in sync")
	maxResults := flag.Int("max-results", 1000, "default grep max_results")
	debounce := flag.Duration("debounce", 100*time.Millisecond, "watcher debounce window")
	flag.Parse()

	token := randToken()

	f, err := facade.New(*root, facade.Options{AutoWatch: *autoWatch, DebounceWindow: *debounce})
	if err != nil {
		log.Fatalf("fsindexd: %v", err)
	}
	defer f.Close()

	s := &server{facade: f, token: token, defaultMaxResults: *maxResults}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/list", s.auth(s.handleList))
	mux.HandleFunc("/glob", s.auth(s.handleGlob))
	mux.HandleFunc("/read", s.auth(s.handleRead))
	mux.HandleFunc("/read-batch", s.auth(s.handleReadBatch))
	mux.HandleFunc("/read-lines", s.auth(s.handleReadLines))
	mux.HandleFunc("/read-range", s.auth(s.handleReadRange))
	mux.HandleFunc("/write", s.auth(s.handleWrite))
	mux.HandleFunc("/write-fast", s.auth(s.handleWriteFast))
	mux.HandleFunc("/edit", s.auth(s.handleEdit))
	mux.HandleFunc("/grep", s.auth(s.handleGrep))
	mux.HandleFunc("/metadata", s.auth(s.handleMetadata))
	mux.HandleFunc("/refresh", s.auth(s.handleRefresh))
	mux.HandleFunc("/status", s.auth(s.handleStatus))

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("listen error: %v", err)
	}
	srv := &http.Server{Handler: mux}
	go func() {
		_ = srv.Serve(ln)
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	info := connInfo{Port: port, Token: token, Root: *root}
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(info)
	log.Printf("fsindexd listening on %s, root=%s", ln.Addr(), *root)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	_ = srv.Close()
}

type server struct {
	facade            *facade.Facade
	token             string
	defaultMaxResults int
}

func (s *server) auth(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if fe, ok := err.(*fserrors.Error); ok {
		switch fe.Kind {
		case fserrors.KindPathNotFound:
			status = http.StatusNotFound
		case fserrors.KindIndexNotReady:
			status = http.StatusServiceUnavailable
		case fserrors.KindTextNotFound, fserrors.KindTextNotUnique, fserrors.KindGlob, fserrors.KindRegex, fserrors.KindPattern:
			status = http.StatusBadRequest
		}
	}
	http.Error(w, err.Error(), status)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	pattern := queryDefault(r, "pattern", "**/*")
	onlyFiles := queryDefault(r, "only_files", "true") == "true"
	out, err := s.facade.List(pattern, onlyFiles)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *server) handleGlob(w http.ResponseWriter, r *http.Request) {
	pattern := queryDefault(r, "pattern", "**/*")
	out, err := s.facade.Glob(pattern)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *server) handleRead(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	content, err := s.facade.ReadFile(path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"content": content})
}

func (s *server) handleReadBatch(w http.ResponseWriter, r *http.Request) {
	var paths []string
	if err := json.NewDecoder(r.Body).Decode(&paths); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.facade.ReadBatch(paths))
}

func (s *server) handleReadLines(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	start, _ := strconv.Atoi(queryDefault(r, "start", "0"))
	count, _ := strconv.Atoi(queryDefault(r, "count", "-1"))
	lines, err := s.facade.ReadLines(path, start, count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, lines)
}

func (s *server) handleReadRange(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	offset, _ := strconv.ParseInt(queryDefault(r, "offset", "0"), 10, 64)
	limit, _ := strconv.Atoi(queryDefault(r, "limit", "4096"))
	content, err := s.facade.ReadFileRange(path, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"content": content})
}

type writeRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (s *server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.facade.WriteFile(req.Path, req.Content); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *server) handleWriteFast(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.facade.WriteFileFast(req.Path, req.Content); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

type editRequest struct {
	Path   string `json:"path"`
	Old    string `json:"old"`
	New    string `json:"new"`
	Strict *bool  `json:"strict"`
}

func (s *server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	strict := true
	if req.Strict != nil {
		strict = *req.Strict
	}
	ok, err := s.facade.EditReplace(req.Path, req.Old, req.New, strict)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": ok})
}

func (s *server) handleGrep(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	pattern := queryDefault(r, "pattern", "**/*")
	caseSensitive := queryDefault(r, "case_sensitive", "false") == "true"
	maxResults, err := strconv.Atoi(queryDefault(r, "max_results", strconv.Itoa(s.defaultMaxResults)))
	if err != nil {
		maxResults = s.defaultMaxResults
	}
	contextLines, _ := strconv.Atoi(queryDefault(r, "context_lines", "0"))

	results, err := s.facade.Grep(query, pattern, grep.Options{
		CaseSensitive: caseSensitive,
		MaxResults:    maxResults,
		ContextLines:  contextLines,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, results)
}

func (s *server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	entry, err := s.facade.GetMetadata(path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, entry)
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.facade.Refresh(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"is_ready":        s.facade.IsReady(),
		"is_watching":     s.facade.IsWatching(),
		"pending_changes": s.facade.PendingChanges(),
	})
}

func queryDefault(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}
