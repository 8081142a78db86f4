// Package chat keeps the local, append-only view of a project's chat or
// research history and sends new queries to the matching agent.
package chat

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/researcher/internal/client/models"
	"github.com/dmitrijs2005/researcher/internal/logging"
)

const (
	ChatFailureText     = "Sorry, I encountered an error providing an answer."
	ResearchFailureText = "## Error\nSorry, I failed to generate the research report."
)

var (
	ErrSendInFlight = errors.New("a message is already being sent")
	ErrEmptyQuery   = errors.New("query is empty")
)

// Agents is the part of the workspace API a conversation talks to.
type Agents interface {
	Messages(ctx context.Context, projectID int, kind models.MessageType) ([]models.ChatMessage, error)
	Chat(ctx context.Context, projectID int, query string, documentIDs []int) (*models.ChatAnswer, error)
	DeepResearch(ctx context.Context, projectID int, query string) (*models.ResearchReport, error)
}

type Option func(*Conversation)

func WithLogger(l logging.Logger) Option {
	return func(c *Conversation) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Conversation) { c.now = now }
}

// Conversation is safe for concurrent use. At most one Send runs at a time.
type Conversation struct {
	agents    Agents
	projectID int
	kind      models.MessageType
	log       logging.Logger
	now       func() time.Time

	mu       sync.Mutex
	messages []models.ChatMessage
	selected []int
	sending  bool
}

func New(agents Agents, projectID int, kind models.MessageType, opts ...Option) *Conversation {
	c := &Conversation{
		agents:    agents,
		projectID: projectID,
		kind:      kind,
		log:       logging.NewNop(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("project", projectID, "conversation", string(kind))
	return c
}

func (c *Conversation) Kind() models.MessageType { return c.kind }

func (c *Conversation) ProjectID() int { return c.projectID }

// Load replaces the local history with the one stored by the backend. On
// error the local history is left as it was. While a Send is outstanding it
// returns ErrSendInFlight.
func (c *Conversation) Load(ctx context.Context) error {
	if c.Sending() {
		return ErrSendInFlight
	}

	msgs, err := c.agents.Messages(ctx, c.projectID, c.kind)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.messages = msgs
	c.mu.Unlock()

	c.log.Debug(ctx, "history loaded", "messages", len(msgs))
	return nil
}

// Messages returns a copy of the history in display order.
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// SelectDocuments restricts chat queries to ids. No ids means every
// document of the project. Research queries ignore the selection.
func (c *Conversation) SelectDocuments(ids ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = slices.Clone(ids)
}

func (c *Conversation) Selected() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.selected)
}

// Sending reports whether a Send is outstanding.
func (c *Conversation) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Send appends the user's query, asks the agent and appends its reply. If
// the call fails a fixed failure message is appended in place of the reply
// and the error is returned alongside it.
func (c *Conversation) Send(ctx context.Context, query string) (models.ChatMessage, error) {
	if strings.TrimSpace(query) == "" {
		return models.ChatMessage{}, ErrEmptyQuery
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return models.ChatMessage{}, ErrSendInFlight
	}
	c.sending = true
	c.messages = append(c.messages, c.message(models.RoleUser, query))
	selected := slices.Clone(c.selected)
	c.mu.Unlock()

	content, err := c.ask(ctx, query, selected)
	if err != nil {
		c.log.Warn(ctx, "query failed", "error", err)
		content = c.failureText()
	}
	reply := c.message(models.RoleAssistant, content)

	c.mu.Lock()
	c.messages = append(c.messages, reply)
	c.sending = false
	c.mu.Unlock()

	return reply, err
}

func (c *Conversation) ask(ctx context.Context, query string, documentIDs []int) (string, error) {
	if c.kind == models.MessageTypeResearch {
		rep, err := c.agents.DeepResearch(ctx, c.projectID, query)
		if err != nil {
			return "", err
		}
		return rep.Report, nil
	}

	ans, err := c.agents.Chat(ctx, c.projectID, query, documentIDs)
	if err != nil {
		return "", err
	}
	return ans.Answer, nil
}

func (c *Conversation) failureText() string {
	if c.kind == models.MessageTypeResearch {
		return ResearchFailureText
	}
	return ChatFailureText
}

func (c *Conversation) message(role models.Role, content string) models.ChatMessage {
	return models.ChatMessage{
		Role:      role,
		Content:   content,
		CreatedAt: models.Timestamp{Time: c.now().UTC()},
	}
}
