package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/researcher/internal/client/gateway"
	"github.com/dmitrijs2005/researcher/internal/client/models"
	"github.com/dmitrijs2005/researcher/internal/netx"
)

// WorkspaceService covers everything scoped to one project: its documents,
// the two agents and their histories.
type WorkspaceService interface {
	Documents(ctx context.Context, projectID int) ([]models.Document, error)
	Upload(ctx context.Context, projectID int, paths ...string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, projectID, documentID int) error

	Messages(ctx context.Context, projectID int, kind models.MessageType) ([]models.ChatMessage, error)
	// Chat asks the quick-chat agent. An empty documentIDs searches every
	// document of the project.
	Chat(ctx context.Context, projectID int, query string, documentIDs []int) (*models.ChatAnswer, error)
	DeepResearch(ctx context.Context, projectID int, query string) (*models.ResearchReport, error)
	Analyze(ctx context.Context, projectID int) (*models.Analysis, error)
}

type workspaceService struct {
	r Requester
}

func NewWorkspaceService(r Requester) WorkspaceService {
	return &workspaceService{r: r}
}

func (w *workspaceService) Documents(ctx context.Context, projectID int) ([]models.Document, error) {
	var out []models.Document
	if err := w.r.Get(ctx, projectPath(projectID)+"/documents", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *workspaceService) Upload(ctx context.Context, projectID int, paths ...string) ([]models.Document, error) {
	body, contentType, err := netx.MultipartFiles("files", paths...)
	if err != nil {
		return nil, fmt.Errorf("prepare upload: %w", err)
	}

	var out []models.Document
	raw := gateway.RawBody{Reader: body, ContentType: contentType}
	if err := w.r.Post(ctx, projectPath(projectID)+"/documents/upload", raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *workspaceService) DeleteDocument(ctx context.Context, projectID, documentID int) error {
	return w.r.Delete(ctx, fmt.Sprintf("%s/documents/%d", projectPath(projectID), documentID), nil)
}

func (w *workspaceService) Messages(ctx context.Context, projectID int, kind models.MessageType) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	q := url.Values{"type": {string(kind)}}
	if err := w.r.Get(ctx, projectPath(projectID)+"/messages", &out, gateway.WithQuery(q)); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *workspaceService) Chat(ctx context.Context, projectID int, query string, documentIDs []int) (*models.ChatAnswer, error) {
	if documentIDs == nil {
		documentIDs = []int{}
	}
	body := map[string]any{"query": query, "document_ids": documentIDs}

	var out models.ChatAnswer
	if err := w.r.Post(ctx, projectPath(projectID)+"/query/chat", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *workspaceService) DeepResearch(ctx context.Context, projectID int, query string) (*models.ResearchReport, error) {
	var out models.ResearchReport
	if err := w.r.Post(ctx, projectPath(projectID)+"/query/research", map[string]string{"query": query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *workspaceService) Analyze(ctx context.Context, projectID int) (*models.Analysis, error) {
	var out models.Analysis
	if err := w.r.Post(ctx, projectPath(projectID)+"/query/analyze", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
