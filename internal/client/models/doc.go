// Package models defines the client-side view of backend resources: the
// signed-in user, projects, documents and conversation messages.
package models
