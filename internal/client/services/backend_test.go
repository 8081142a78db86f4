package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/researcher/internal/client/gateway"
)

// fakeBackend is a small in-memory imitation of the research API.
type fakeBackend struct {
	mu       sync.Mutex
	projects []map[string]any
	uploads  []string
	lastBody map[string]any
	lastAuth string
	approved []int
	limit    int
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode stores the JSON request body; callers hold f.mu.
func (f *fakeBackend) decode(r *http.Request) {
	f.lastBody = map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
}

func (f *fakeBackend) body() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

func (f *fakeBackend) auth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

func (f *fakeBackend) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

func (f *fakeBackend) approvedIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.approved...)
}

func (f *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.lastAuth = r.Header.Get("Authorization")
			f.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			if r.PostForm.Get("password") != "secret" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok-" + r.PostForm.Get("username"), "token_type": "bearer"})
		})
		r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.decode(r)
			writeJSON(w, http.StatusCreated, map[string]any{"id": 5, "email": f.lastBody["email"], "full_name": f.lastBody["full_name"], "is_active": true})
		})
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer good" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": 1, "email": "a@b.c", "is_active": true, "is_superuser": true})
		})
		r.Post("/auth/upgrade", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.decode(r)
			f.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]string{"message": "Payment details submitted for verification"})
		})

		r.Get("/projects/", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			writeJSON(w, http.StatusOK, f.projects)
		})
		r.Post("/projects/", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.decode(r)
			if f.limit > 0 && len(f.projects) >= f.limit {
				writeJSON(w, http.StatusPaymentRequired, map[string]string{"detail": "Free plan limit reached. Please upgrade to continue."})
				return
			}
			p := map[string]any{"id": len(f.projects) + 1, "title": f.lastBody["title"], "description": f.lastBody["description"], "created_at": "2024-05-01T10:00:00"}
			f.projects = append(f.projects, p)
			writeJSON(w, http.StatusOK, p)
		})
		r.Get("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.Atoi(chi.URLParam(r, "id"))
			f.mu.Lock()
			defer f.mu.Unlock()
			if id < 1 || id > len(f.projects) {
				writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Project not found"})
				return
			}
			writeJSON(w, http.StatusOK, f.projects[id-1])
		})
		r.Delete("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": chi.URLParam(r, "id")})
		})

		r.Get("/projects/{id}/documents", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 11, "filename": "a.pdf", "is_indexed": true, "uploaded_at": "2024-05-01 10:00:00"}})
		})
		r.Post("/projects/{id}/documents/upload", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
				return
			}
			var out []map[string]any
			for i, fh := range r.MultipartForm.File["files"] {
				file, _ := fh.Open()
				_, _ = io.ReadAll(file)
				_ = file.Close()
				f.mu.Lock()
				f.uploads = append(f.uploads, fh.Filename)
				f.mu.Unlock()
				out = append(out, map[string]any{"id": 100 + i, "filename": fh.Filename, "is_indexed": false})
			}
			writeJSON(w, http.StatusOK, out)
		})
		r.Delete("/projects/{id}/documents/{doc}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		r.Get("/projects/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]any{
				{"id": 1, "role": "user", "content": "q:" + r.URL.Query().Get("type"), "created_at": "2024-05-01T10:00:00"},
				{"id": 2, "role": "assistant", "content": "a", "created_at": "2024-05-01T10:00:01"},
			})
		})
		r.Post("/projects/{id}/query/chat", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.decode(r)
			f.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"answer": "See [Source: a.pdf, Page: 2]", "sources": []string{}})
		})
		r.Post("/projects/{id}/query/research", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.decode(r)
			f.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"report": "# Report"})
		})
		r.Post("/projects/{id}/query/analyze", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"research_gaps":           []string{"gap"},
				"methodology_suggestions": []map[string]any{{"action": "do", "reasoning": "why", "citations": []string{"a.pdf"}}},
			})
		})

		r.Get("/admin/pending", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 3, "email": "p@x.y", "transaction_id": "TX-9", "is_premium": false}})
		})
		r.Post("/admin/approve/{user}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.Atoi(chi.URLParam(r, "user"))
			f.mu.Lock()
			f.approved = append(f.approved, id)
			f.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]string{"message": "User approved and set to Premium"})
		})
	})
	return r
}

// newTestGateway starts the fake backend and returns a gateway whose token
// source returns token and whose failures are collected in *sunk.
func newTestGateway(t *testing.T, token string) (*gateway.Gateway, *fakeBackend, *[]string) {
	t.Helper()
	fb := &fakeBackend{}
	ts := httptest.NewServer(fb.router())
	t.Cleanup(ts.Close)

	var sunk []string
	g := gateway.New(ts.URL+"/api/v1",
		gateway.WithTokenSource(func() string { return token }),
		gateway.WithErrorSink(func(m string) { sunk = append(sunk, m) }),
	)
	return g, fb, &sunk
}
