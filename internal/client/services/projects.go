package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/researcher/internal/client/models"
)

// ProjectService manages research projects. Creating a project past the
// free plan limit fails with gateway.ErrPaymentRequired.
type ProjectService interface {
	List(ctx context.Context) ([]models.Project, error)
	Create(ctx context.Context, title, description string) (*models.Project, error)
	Get(ctx context.Context, id int) (*models.Project, error)
	Delete(ctx context.Context, id int) error
}

type projectService struct {
	r Requester
}

func NewProjectService(r Requester) ProjectService {
	return &projectService{r: r}
}

func (p *projectService) List(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := p.r.Get(ctx, "/projects/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *projectService) Create(ctx context.Context, title, description string) (*models.Project, error) {
	body := map[string]any{"title": title}
	if description != "" {
		body["description"] = description
	}

	var out models.Project
	if err := p.r.Post(ctx, "/projects/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *projectService) Get(ctx context.Context, id int) (*models.Project, error) {
	var out models.Project
	if err := p.r.Get(ctx, projectPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *projectService) Delete(ctx context.Context, id int) error {
	return p.r.Delete(ctx, projectPath(id), nil)
}

func projectPath(id int) string {
	return fmt.Sprintf("/projects/%d", id)
}
