package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/researcher/internal/client/models"
)

// AdminService lists and approves pending subscription upgrades. Both
// calls require a superuser token; others get gateway.ErrForbidden.
type AdminService interface {
	Pending(ctx context.Context) ([]models.PendingUser, error)
	Approve(ctx context.Context, userID int) (string, error)
}

type adminService struct {
	r Requester
}

func NewAdminService(r Requester) AdminService {
	return &adminService{r: r}
}

func (a *adminService) Pending(ctx context.Context) ([]models.PendingUser, error) {
	var out []models.PendingUser
	if err := a.r.Get(ctx, "/admin/pending", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *adminService) Approve(ctx context.Context, userID int) (string, error) {
	var resp models.StatusMessage
	if err := a.r.Post(ctx, fmt.Sprintf("/admin/approve/%d", userID), nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
