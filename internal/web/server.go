package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	gosync "sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/retain-app/retain/internal/domain"
	"github.com/retain-app/retain/internal/session"
	"github.com/retain-app/retain/internal/sm2"
	"github.com/retain-app/retain/internal/storage"
	"github.com/retain-app/retain/internal/sync"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server.
type Server struct {
	db        *storage.DB
	router    *http.ServeMux
	templates *template.Template
	reposDir  string

	mu       gosync.Mutex
	sessions map[string]*session.Session
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, reposDir string) *Server {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	s := &Server{
		db:        db,
		router:    http.NewServeMux(),
		templates: tpl,
		reposDir:  reposDir,
		sessions:  make(map[string]*session.Session),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("Failed to create sub-filesystem for static assets: %v", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	s.router.Handle("/static/", http.StripPrefix("/static/", fileServer))
	s.router.Handle("/", fileServer)

	// HTMX-based review routes
	s.router.HandleFunc("/deck", s.handleGetDeck())
	s.router.HandleFunc("/session/start", s.handleStartSession())
	s.router.HandleFunc("/review/next", s.handleGetNextReview())
	s.router.HandleFunc("/review/answer/", s.handleShowAnswer())
	s.router.HandleFunc("/review/", s.handlePostReview())

	// Source management routes
	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

// deckData is the payload for the deck overview template.
type deckData struct {
	DueCount       int
	HasDueCards    bool
	TotalCards     int
	AverageMastery int
	Buckets        sm2.Buckets
}

// handleGetDeck renders the deck overview: due count and mastery breakdown.
func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		dueCards, err := s.db.GetDueCards(now)
		if err != nil {
			log.Printf("Error getting due cards for deck view: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		allCards, err := s.db.GetAllCards()
		if err != nil {
			log.Printf("Error getting cards for deck view: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.templates.ExecuteTemplate(w, "deck", deckData{
			DueCount:       len(dueCards),
			HasDueCards:    len(dueCards) > 0,
			TotalCards:     len(allCards),
			AverageMastery: sm2.AverageMastery(allCards),
			Buckets:        sm2.MasteryBuckets(allCards),
		})
	}
}

// cardView couples a card with the session it belongs to.
type cardView struct {
	Card      domain.Card
	SessionID string
	Remaining int
}

// handleStartSession builds a fresh review queue from the due cards and
// hands the client a session ID to grade against.
func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		due, err := s.db.GetDueCards(time.Now())
		if err != nil {
			log.Printf("Error getting due cards for new session: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if len(due) == 0 {
			s.templates.ExecuteTemplate(w, "session_done", nil)
			return
		}

		id := shortuuid.New()
		sess := session.New(due)
		s.mu.Lock()
		s.sessions[id] = sess
		s.mu.Unlock()

		s.renderNextCard(w, id, sess)
	}
}

func (s *Server) lookupSession(id string) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Server) renderNextCard(w http.ResponseWriter, id string, sess *session.Session) {
	card, ok := sess.Next()
	if !ok {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		s.templates.ExecuteTemplate(w, "session_done", map[string]int{
			"Reviewed": sess.Reviewed(),
			"Failed":   sess.Failed(),
		})
		return
	}
	s.templates.ExecuteTemplate(w, "card_front", cardView{
		Card:      card,
		SessionID: id,
		Remaining: sess.Remaining(),
	})
}

// handleGetNextReview renders the front of the session's next due card.
func (s *Server) handleGetNextReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("session")
		sess := s.lookupSession(id)
		if sess == nil {
			http.Error(w, "Unknown session", http.StatusNotFound)
			return
		}
		s.renderNextCard(w, id, sess)
	}
}

// handleShowAnswer renders the back of a card.
func (s *Server) handleShowAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hash := strings.TrimPrefix(r.URL.Path, "/review/answer/")
		card, err := s.db.FindCardByHash(hash)
		if err != nil || card == nil {
			http.NotFound(w, r)
			return
		}
		s.templates.ExecuteTemplate(w, "card_back", cardView{
			Card:      *card,
			SessionID: r.URL.Query().Get("session"),
		})
	}
}

// handlePostReview grades the session's head card and renders the next one.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		hash := strings.TrimPrefix(r.URL.Path, "/review/")
		id := r.PostFormValue("session")
		sess := s.lookupSession(id)
		if sess == nil {
			http.Error(w, "Unknown session", http.StatusNotFound)
			return
		}

		head, ok := sess.Next()
		if !ok || head.Hash != hash {
			http.Error(w, "Card is not at the head of the session", http.StatusConflict)
			return
		}

		grade, err := strconv.Atoi(r.PostFormValue("grade"))
		if err != nil {
			http.Error(w, "Invalid grade", http.StatusBadRequest)
			return
		}

		updated, err := sess.Grade(grade, time.Now())
		if err != nil {
			// Out-of-range grades are caller errors, not server faults.
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.db.RecordReview(updated); err != nil {
			log.Printf("Error persisting review for hash %s: %v", hash, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		s.renderNextCard(w, id, sess)
	}
}

// handlePostSync triggers a manual sync and re-renders the source list.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := sync.RunSync(s.db, s.reposDir); err != nil {
			log.Printf("Error running sync: %v", err)
			http.Error(w, "Sync failed", http.StatusInternalServerError)
			return
		}

		sources, err := s.db.GetAllSources()
		if err != nil {
			log.Printf("Error getting sources after sync: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Render both the success message and the updated list
		s.templates.ExecuteTemplate(w, "sync_success", nil)
		s.templates.ExecuteTemplate(w, "source_list", map[string]interface{}{
			"Sources": sources,
		})
	}
}

// handleSources handles both GET and POST for the sources page.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSources(w, r)
		case http.MethodPost:
			s.handlePostSource(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleGetSources renders the main sources management page.
func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		log.Printf("Error getting sources: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.templates.ExecuteTemplate(w, "sources", map[string]interface{}{
		"Sources": sources,
	})
}

// handlePostSource adds a new source and re-renders the source list.
func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	path := r.PostFormValue("path")
	if path == "" {
		http.Error(w, "Path cannot be empty", http.StatusBadRequest)
		return
	}

	if _, err := s.db.InsertSource(path, sync.DetectType(path)); err != nil {
		log.Printf("Error inserting new source: %v", err)
		http.Error(w, "Failed to add source", http.StatusInternalServerError)
		return
	}

	sources, err := s.db.GetAllSources()
	if err != nil {
		log.Printf("Error getting sources after add: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.templates.ExecuteTemplate(w, "source_list", map[string]interface{}{
		"Sources": sources,
	})
}

// handleDeleteSource deletes a source and re-renders the source list.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/sources/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid source ID", http.StatusBadRequest)
			return
		}

		if err := s.db.DeleteSource(id); err != nil {
			log.Printf("Error deleting source %d: %v", id, err)
			http.Error(w, "Failed to delete source", http.StatusInternalServerError)
			return
		}

		sources, err := s.db.GetAllSources()
		if err != nil {
			log.Printf("Error getting sources after delete: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.templates.ExecuteTemplate(w, "source_list", map[string]interface{}{
			"Sources": sources,
		})
	}
}
