// Package web serves the HTMX interface: importing scripts, reviewing them
// line by line, and managing sync sources.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/conorfennell/cuecard/internal/domain"
	"github.com/conorfennell/cuecard/internal/parser"
	"github.com/conorfennell/cuecard/internal/review"
	"github.com/conorfennell/cuecard/internal/storage"
	"github.com/conorfennell/cuecard/internal/sync"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// ChunkSizes are the chunk sizes offered when creating a script.
var ChunkSizes = []int{3, 5, 7, 10}

const maxUpload = 10 << 20

// Server holds the dependencies for the HTTP server.
type Server struct {
	db        *storage.DB
	review    *review.Service
	syncer    *sync.Syncer
	logger    *slog.Logger
	chunkSize int
	router    *http.ServeMux
	templates *template.Template
}

// NewServer creates and configures a new server. chunkSize is the chunk
// size preselected for new scripts and sources.
func NewServer(db *storage.DB, svc *review.Service, syncer *sync.Syncer, logger *slog.Logger, chunkSize int) (*Server, error) {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		db:        db,
		review:    svc,
		syncer:    syncer,
		logger:    logger,
		chunkSize: chunkSize,
		router:    http.NewServeMux(),
		templates: tpl,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("GET /{$}", s.handleIndex())

	// Import flow
	s.router.HandleFunc("GET /scripts/new", s.handleNewScript())
	s.router.HandleFunc("POST /scripts/characters", s.handleCharacters())
	s.router.HandleFunc("POST /scripts", s.handleCreateScript())
	s.router.HandleFunc("DELETE /scripts/{id}", s.handleDeleteScript())

	// Review
	s.router.HandleFunc("GET /scripts/{id}/review", s.handleReview())
	s.router.HandleFunc("GET /scripts/{id}/next", s.handleNext())
	s.router.HandleFunc("GET /scripts/{id}/lines/{line}/answer", s.handleShowAnswer())
	s.router.HandleFunc("POST /scripts/{id}/lines/{line}/grade", s.handleGrade())

	// Source management
	s.router.HandleFunc("GET /sources", s.handleGetSources())
	s.router.HandleFunc("POST /sources", s.handlePostSource())
	s.router.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /sync", s.handlePostSync())
	return nil
}

// render executes the named templates in turn. Nothing is written unless all
// of them succeed.
func (s *Server) render(w http.ResponseWriter, status int, data any, names ...string) {
	var buf bytes.Buffer
	for _, name := range names {
		if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
			s.logger.Error("failed to render template", "template", name, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail maps an error to a status code and reports it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, review.ErrScriptNotFound), errors.Is(err, review.ErrLineNotFound):
		status = http.StatusNotFound
	case errors.Is(err, parser.ErrNoDialogue), errors.Is(err, parser.ErrCharacterNotFound),
		errors.Is(err, parser.ErrInvalidChunkSize), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, review.ErrNotCurrentLine):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// redirect sends HTMX requests to url with HX-Redirect and others with a 303.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (s *Server) chunkSizeFrom(r *http.Request) (int, error) {
	v := r.FormValue("chunk_size")
	if v == "" {
		return s.chunkSize, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, badRequest("invalid chunk size %q", v)
	}
	return n, nil
}

// handleIndex lists scripts with their progress.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overviews, err := s.review.Overviews(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, http.StatusOK, map[string]any{"Overviews": overviews}, "index")
	}
}

// handleNewScript renders the paste/upload form.
func (s *Server) handleNewScript() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, nil, "new")
	}
}

type charactersData struct {
	Title      string
	Markdown   string
	Characters []parser.CharacterLines
	ChunkSizes []int
	ChunkSize  int
}

// handleCharacters parses pasted or uploaded text and asks which character
// to learn.
func (s *Server) handleCharacters() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parseSubmission(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if len(p.Characters) == 0 {
			s.render(w, http.StatusOK, nil, "no_dialogue")
			return
		}
		s.render(w, http.StatusOK, charactersData{
			Title:      p.Title,
			Markdown:   p.Source,
			Characters: p.LineCounts(),
			ChunkSizes: ChunkSizes,
			ChunkSize:  s.chunkSize,
		}, "characters")
	}
}

// parseSubmission reads the script from an uploaded file if there is one,
// otherwise from the markdown field.
func parseSubmission(r *http.Request) (*parser.ParsedScript, error) {
	if err := r.ParseMultipartForm(maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, badRequest("invalid form: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		return parseUpload(file, header.Filename)
	}
	if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return nil, badRequest("invalid upload: %v", err)
	}
	return parser.ParseMarkdown(r.FormValue("markdown")), nil
}

func parseUpload(file io.Reader, name string) (*parser.ParsedScript, error) {
	// ParseFile picks the format by extension, so keep the name.
	tmp, err := os.MkdirTemp("", "cuecard-upload")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	path := filepath.Join(tmp, filepath.Base(name))
	out, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	p, err := parser.ParseFile(path)
	if err != nil {
		return nil, badRequest("could not read %s: %v", name, err)
	}
	return p, nil
}

// handleCreateScript commits the chosen character's lines and starts review.
func (s *Server) handleCreateScript() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chunkSize, err := s.chunkSizeFrom(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		character := r.FormValue("character")
		if character == "" {
			s.fail(w, r, badRequest("choose a character"))
			return
		}

		p := parser.ParseMarkdown(r.FormValue("markdown"))
		b, err := parser.Build(p, character, chunkSize, time.Now())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if err := s.db.CommitScript(r.Context(), b.Script, b.Scenes, b.Lines); err != nil {
			s.fail(w, r, err)
			return
		}

		s.logger.Info("script created", "script_id", b.Script.ID, "title", b.Script.Title, "lines", len(b.Lines))
		redirect(w, r, "/scripts/"+b.Script.ID+"/review")
	}
}

// handleDeleteScript removes a script and re-renders the script list.
func (s *Server) handleDeleteScript() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.DeleteScript(r.Context(), r.PathValue("id")); err != nil {
			s.fail(w, r, err)
			return
		}
		overviews, err := s.review.Overviews(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, http.StatusOK, map[string]any{"Overviews": overviews}, "script_list")
	}
}

// handleReview renders the review page for a script.
func (s *Server) handleReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.review.Next(r.Context(), r.PathValue("id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, http.StatusOK, p, "review")
	}
}

// handleNext renders the card for the current line.
func (s *Server) handleNext() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.review.Next(r.Context(), r.PathValue("id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, http.StatusOK, p, "card")
	}
}

// handleShowAnswer renders the back of the current card. A request for any
// other line gets the current card's front instead.
func (s *Server) handleShowAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.review.Next(r.Context(), r.PathValue("id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if p.Line == nil || p.Line.ID != r.PathValue("line") {
			s.render(w, http.StatusOK, p, "card")
			return
		}
		s.render(w, http.StatusOK, p, "card_back")
	}
}

// handleGrade records a grade and renders the next card. A stale grade is
// dropped and the current card is shown again.
func (s *Server) handleGrade() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		correct, err := strconv.ParseBool(r.FormValue("correct"))
		if err != nil {
			s.fail(w, r, badRequest("invalid grade %q", r.FormValue("correct")))
			return
		}
		turn, err := strconv.Atoi(r.FormValue("turn"))
		if err != nil {
			s.fail(w, r, badRequest("invalid turn %q", r.FormValue("turn")))
			return
		}

		scriptID := r.PathValue("id")
		p, err := s.review.Grade(r.Context(), scriptID, r.PathValue("line"), turn, correct)
		if errors.Is(err, review.ErrNotCurrentLine) {
			s.logger.Info("ignoring stale grade", "script_id", scriptID, "line_id", r.PathValue("line"))
			p, err = s.review.Next(r.Context(), scriptID)
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, http.StatusOK, p, "card")
	}
}

type sourcesData struct {
	Sources    []domain.Source
	ChunkSizes []int
	ChunkSize  int
}

func (s *Server) sourcesData(ctx context.Context) (sourcesData, error) {
	sources, err := s.db.ListSources(ctx)
	if err != nil {
		return sourcesData{}, err
	}
	return sourcesData{Sources: sources, ChunkSizes: ChunkSizes, ChunkSize: s.chunkSize}, nil
}

// handleGetSources renders the main sources management page.
func (s *Server) handleGetSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := s.sourcesData(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, http.StatusOK, data, "sources")
	}
}

// handlePostSource adds a new source and re-renders the source list.
func (s *Server) handlePostSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chunkSize, err := s.chunkSizeFrom(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		path := r.PostFormValue("path")
		source := domain.Source{
			Path:      path,
			Type:      domain.SourceType(path),
			Character: r.PostFormValue("character"),
			ChunkSize: chunkSize,
		}
		if err := domain.Validate(source); err != nil {
			s.fail(w, r, badRequest("path and character are required"))
			return
		}

		if _, err := s.db.InsertSource(r.Context(), source); err != nil {
			s.fail(w, r, err)
			return
		}
		s.renderSourceList(w, r)
	}
}

// handleDeleteSource deletes a source and re-renders the source list.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			s.fail(w, r, badRequest("invalid source ID"))
			return
		}
		if err := s.db.DeleteSource(r.Context(), id); err != nil {
			s.fail(w, r, err)
			return
		}
		s.renderSourceList(w, r)
	}
}

func (s *Server) renderSourceList(w http.ResponseWriter, r *http.Request) {
	data, err := s.sourcesData(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, data, "source_list")
}

// handlePostSync triggers a manual sync and re-renders the source list.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Run in the foreground to make the user wait.
		report, err := s.syncer.Run(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		data, err := s.sourcesData(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, http.StatusOK, map[string]any{
			"Report":     report,
			"Sources":    data.Sources,
			"ChunkSizes": data.ChunkSizes,
			"ChunkSize":  data.ChunkSize,
		}, "sync_result", "source_list")
	}
}
