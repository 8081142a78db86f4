// Package services wraps the backend REST endpoints in typed calls. Every
// service goes through a Requester (the gateway), so bearer injection and
// error publishing happen in one place.
package services

import (
	"context"

	"github.com/dmitrijs2005/researcher/internal/client/gateway"
)

// Requester is the part of *gateway.Gateway the services use.
type Requester interface {
	Get(ctx context.Context, path string, out any, opts ...gateway.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...gateway.RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...gateway.RequestOption) error
}
