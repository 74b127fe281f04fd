package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dayflow/internal/domain"
	"dayflow/internal/store"
	"dayflow/internal/urgency"
	"dayflow/internal/visibility"
)

type Server struct {
	r        *chi.Mux
	repo     store.Repository
	firstDay time.Weekday
	now      func() time.Time
}

func NewServer(repo store.Repository, firstDay time.Weekday) http.Handler {
	return newServer(repo, firstDay, time.Now)
}

func newServer(repo store.Repository, firstDay time.Weekday, now func() time.Time) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	s := &Server{r: r, repo: repo, firstDay: firstDay, now: now}

	r.Get("/health", s.health)
	r.Get("/metrics", s.metrics)
	r.Post("/api/tasks", s.createTask)
	r.Get("/api/tasks", s.listTasks)
	r.Get("/api/tasks/{id}", s.getTask)
	r.Put("/api/tasks/{id}", s.updateTask)
	r.Delete("/api/tasks/{id}", s.deleteTask)
	r.Post("/api/tasks/{id}/complete", s.completeTask)
	r.Post("/api/tasks/{id}/undo", s.undoComplete)
	r.Get("/api/today", s.today)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("dayflow_up 1\n"))
}

type taskReq struct {
	Title      string             `json:"title"`
	Priority   int                `json:"priority"`
	Effort     float64            `json:"effort"`
	DueAt      *time.Time         `json:"due_at"`
	DueMode    string             `json:"due_mode"`
	Recurrence *domain.Recurrence `json:"recurrence"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if req.Title == "" {
		http.Error(w, "title is required", 400)
		return
	}

	t := domain.NewTask(req.Title, req.Priority, s.now())
	t.Effort = req.Effort
	t.DueAt = req.DueAt
	if req.DueMode != "" {
		t.DueMode = domain.DueSemantics(req.DueMode)
	}
	if req.Recurrence != nil {
		t.Recurring = true
		t.Recurrence = req.Recurrence
	}

	created, err := s.repo.Create(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	var (
		tasks []domain.Task
		err   error
	)
	if r.URL.Query().Get("active") == "true" {
		tasks, err = s.repo.ListActive(r.Context())
	} else {
		tasks, err = s.repo.List(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	writeJSON(w, 200, tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req taskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if req.Title != "" {
		t.Title = req.Title
	}
	if req.Priority != 0 {
		t.Priority = domain.ClampPriority(req.Priority)
	}
	if req.Effort != 0 {
		t.Effort = req.Effort
	}
	if req.DueAt != nil {
		t.DueAt = req.DueAt
	}
	if req.DueMode != "" {
		t.DueMode = domain.DueSemantics(req.DueMode)
	}
	if req.Recurrence != nil {
		t.Recurring = true
		t.Recurrence = req.Recurrence
	}

	if err := s.repo.Update(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeResp struct {
	Task      domain.Task  `json:"task"`
	Successor *domain.Task `json:"successor,omitempty"`
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	t, successor, err := s.repo.Complete(r.Context(), chi.URLParam(r, "id"), s.now(), s.firstDay)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, completeResp{Task: t, Successor: successor})
}

func (s *Server) undoComplete(w http.ResponseWriter, r *http.Request) {
	t, err := s.repo.UndoComplete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, t)
}

type todayItem struct {
	domain.Task
	Score  float64          `json:"score"`
	Weight float64          `json:"weight"`
	State  visibility.State `json:"state"`
}

type todayResp struct {
	At    time.Time   `json:"at"`
	Count int         `json:"count"`
	Tasks []todayItem `json:"tasks"`
}

// today is the engine boundary: the active set run through the visibility
// gate and ordered by sort score. An explicit ?at= keeps the response
// deterministic for a given instant.
func (s *Server) today(w http.ResponseWriter, r *http.Request) {
	at := s.now()
	if q := r.URL.Query().Get("at"); q != "" {
		parsed, err := time.Parse(time.RFC3339, q)
		if err != nil {
			http.Error(w, "invalid at: "+err.Error(), 400)
			return
		}
		at = parsed
	}
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", 400)
			return
		}
		limit = n
	}

	tasks, err := s.repo.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	visible := visibility.VisibleToday(tasks, at)
	urgency.Sort(visible, at)
	if limit > 0 && len(visible) > limit {
		visible = visible[:limit]
	}

	items := make([]todayItem, 0, len(visible))
	for _, t := range visible {
		items = append(items, todayItem{
			Task:   t,
			Score:  urgency.SortScore(t, at),
			Weight: urgency.EffectiveWeight(t, at),
			State:  visibility.StateAt(t, at),
		})
	}
	writeJSON(w, 200, todayResp{At: at, Count: len(items), Tasks: items})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", 404)
	case errors.Is(err, domain.ErrInvalidTask), errors.Is(err, domain.ErrInvalidRecurrence):
		http.Error(w, err.Error(), 400)
	default:
		http.Error(w, err.Error(), 500)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
