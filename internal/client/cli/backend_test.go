package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/researcher/internal/client/config"
	"github.com/dmitrijs2005/researcher/internal/client/repositories/credentials"
)

const citedAnswer = "Graph depth matters [Source: Smith2020, Page: 14] in practice."

// fakeAPI imitates the research backend for whole-REPL tests.
type fakeAPI struct {
	mu          sync.Mutex
	projects    map[int]string
	nextID      int
	approved    []int
	projects401 bool
	premium     bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{projects: map[int]string{1: "Graph nets"}, nextID: 2}
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func bearerEmail(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer tok-")
}

func (f *fakeAPI) router() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			if r.PostForm.Get("password") != "secret" {
				reply(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
				return
			}
			reply(w, http.StatusOK, map[string]string{"access_token": "tok-" + r.PostForm.Get("username"), "token_type": "bearer"})
		})
		r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
			reply(w, http.StatusOK, map[string]any{"id": 9, "email": "new@x", "is_active": true})
		})
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			email := bearerEmail(r)
			if email == "" {
				reply(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
				return
			}
			f.mu.Lock()
			premium := f.premium
			f.mu.Unlock()
			reply(w, http.StatusOK, map[string]any{
				"id": 1, "email": email, "full_name": strings.Split(email, "@")[0],
				"is_active": true, "is_premium": premium, "is_superuser": strings.HasPrefix(email, "admin"),
			})
		})
		r.Post("/auth/upgrade", func(w http.ResponseWriter, r *http.Request) {
			reply(w, http.StatusOK, map[string]string{"message": "Upgrade request submitted for review."})
		})

		r.Get("/projects/", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.projects401 {
				reply(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
				return
			}
			out := []map[string]any{}
			for id, title := range f.projects {
				out = append(out, map[string]any{"id": id, "title": title})
			}
			reply(w, http.StatusOK, out)
		})
		r.Post("/projects/", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.mu.Lock()
			id := f.nextID
			f.nextID++
			f.projects[id] = body["title"]
			f.mu.Unlock()
			reply(w, http.StatusOK, map[string]any{"id": id, "title": body["title"]})
		})
		r.Get("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.Atoi(chi.URLParam(r, "id"))
			f.mu.Lock()
			title, ok := f.projects[id]
			f.mu.Unlock()
			if !ok {
				reply(w, http.StatusNotFound, map[string]string{"detail": "Project not found"})
				return
			}
			reply(w, http.StatusOK, map[string]any{"id": id, "title": title})
		})
		r.Delete("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.Atoi(chi.URLParam(r, "id"))
			f.mu.Lock()
			delete(f.projects, id)
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		})
		r.Get("/projects/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("type") == "research" {
				reply(w, http.StatusOK, []map[string]any{{"id": 1, "role": "assistant", "content": "# Old report"}})
				return
			}
			reply(w, http.StatusOK, []map[string]any{})
		})
		r.Get("/projects/{id}/documents", func(w http.ResponseWriter, r *http.Request) {
			reply(w, http.StatusOK, []map[string]any{{"id": 4, "filename": "smith2020.pdf", "is_indexed": true}})
		})
		r.Post("/projects/{id}/query/chat", func(w http.ResponseWriter, r *http.Request) {
			reply(w, http.StatusOK, map[string]any{"answer": citedAnswer, "sources": []string{"Smith2020"}})
		})
		r.Post("/projects/{id}/query/research", func(w http.ResponseWriter, r *http.Request) {
			reply(w, http.StatusPaymentRequired, map[string]string{"detail": "Premium subscription required"})
		})
		r.Post("/projects/{id}/query/analyze", func(w http.ResponseWriter, r *http.Request) {
			reply(w, http.StatusOK, map[string]any{"research_gaps": []string{"no field study"}})
		})

		r.Get("/admin/pending", func(w http.ResponseWriter, r *http.Request) {
			reply(w, http.StatusOK, []map[string]any{{"id": 5, "email": "p@x", "transaction_id": "TX-1234"}})
		})
		r.Post("/admin/approve/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.Atoi(chi.URLParam(r, "id"))
			f.mu.Lock()
			f.approved = append(f.approved, id)
			f.mu.Unlock()
			reply(w, http.StatusOK, map[string]string{"message": "User approved"})
		})
	})
	return r
}

func (f *fakeAPI) set(fn func(*fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// runScript feeds script to a fresh App talking to api and returns
// everything it printed.
func runScript(t *testing.T, api *fakeAPI, store credentials.Repository, script string, tweaks ...func(*config.Config)) string {
	t.Helper()

	srv := httptest.NewServer(api.router())
	t.Cleanup(srv.Close)
	withTerminal(t, false, nil, nil)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIBaseURL = srv.URL + "/api/v1"
	for _, tweak := range tweaks {
		tweak(cfg)
	}

	var out bytes.Buffer
	app := NewApp(cfg, store, strings.NewReader(script), &out, WithPlainOutput(true))
	require.NoError(t, app.Run(context.Background()))

	app.out.mu.Lock()
	defer app.out.mu.Unlock()
	return out.String()
}

func emptyStore() *credentials.MemoryRepository {
	return credentials.NewMemoryRepository(credentials.Stored{})
}
