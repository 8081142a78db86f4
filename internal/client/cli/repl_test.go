package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/researcher/internal/client/chat"
	"github.com/dmitrijs2005/researcher/internal/client/config"
	"github.com/dmitrijs2005/researcher/internal/client/gateway"
	"github.com/dmitrijs2005/researcher/internal/client/repositories/credentials"
)

const loginUser = "login\nuser@x\nsecret\n"

func TestREPL_GuardRefusesWhenSignedOut(t *testing.T) {
	out := runScript(t, newFakeAPI(), emptyStore(), "projects\nopen 1\nhelp\nexit\n")

	assert.Equal(t, 2, strings.Count(out, msgLoginFirst))
	assert.Contains(t, out, "login")
	assert.NotContains(t, out, "newproject")
	assert.Contains(t, out, "Bye!")
}

func TestREPL_LoginOpenChat(t *testing.T) {
	store := emptyStore()
	out := runScript(t, newFakeAPI(), store,
		loginUser+"help\nopen 1\nchat how deep?\nhistory research\ndocs\nselect 4\ndocs\nanalyze\nstats\nexit\n")

	assert.Contains(t, out, "Welcome, user!")
	assert.Contains(t, out, "newproject")
	assert.Contains(t, out, `Opened "Graph nets": 0 chat and 1 research messages.`)
	assert.Contains(t, out, "Graph depth matters")
	assert.Contains(t, out, "Smith2020, p. 14")
	assert.NotContains(t, out, "[Source: Smith2020")
	assert.Contains(t, out, "# Old report")
	assert.Contains(t, out, "smith2020.pdf")
	assert.Contains(t, out, "Chat limited to 1 document(s).")
	assert.Contains(t, out, "*   4  smith2020.pdf")
	assert.Contains(t, out, "no field study")
	assert.Contains(t, out, "POST")
	assert.Contains(t, out, "researcher (user@x | Graph nets)> ")

	assert.Equal(t, "tok-user@x", store.Current().Token)
}

func TestREPL_WrongPasswordToastsAndRedirectsOnce(t *testing.T) {
	out := runScript(t, newFakeAPI(), emptyStore(), "login\nuser@x\nwrong\ntoasts\ndismiss all\ntoasts\nexit\n")

	assert.Contains(t, out, "[error] Incorrect email or password")
	assert.Equal(t, 1, strings.Count(out, "Your session has ended"))
	assert.Contains(t, out, "No active notifications.")
}

func TestREPL_UnauthorizedRedirectsOnce(t *testing.T) {
	api := newFakeAPI()
	api.set(func(f *fakeAPI) { f.projects401 = true })
	store := emptyStore()

	out := runScript(t, api, store, loginUser+"projects\nprojects\nexit\n")

	assert.Equal(t, 1, strings.Count(out, "Your session has ended"))
	assert.Contains(t, out, "[error] Token expired")
	assert.Contains(t, out, msgLoginFirst)
	assert.Empty(t, store.Current().Token)
}

func TestREPL_PaymentRequiredShowsPaywall(t *testing.T) {
	out := runScript(t, newFakeAPI(), emptyStore(), loginUser+"open 1\nresearch survey everything\nexit\n")

	assert.Contains(t, out, "[error] Premium subscription required")
	assert.Contains(t, out, msgPaywall)
	assert.Contains(t, out, "Sorry, I failed to generate the research report.")
}

func TestREPL_Upgrade(t *testing.T) {
	out := runScript(t, newFakeAPI(), emptyStore(), loginUser+"upgrade ab\nupgrade TX-9999\nupgrade\nexit\n")

	assert.Contains(t, out, "Invalid transaction id: it must be at least 4 characters.")
	assert.Contains(t, out, "[success] Upgrade request submitted for review.")
	assert.Contains(t, out, "Plan: free")
	assert.Contains(t, out, "Usage: upgrade <transaction id>")
}

func TestREPL_AdminFlow(t *testing.T) {
	api := newFakeAPI()
	out := runScript(t, api, emptyStore(), "adminlogin\nadmin@x\nsecret\npending\napprove 5\napprove x\nexit\n")

	assert.Contains(t, out, "Welcome, administrator admin!")
	assert.Contains(t, out, "TX-1234")
	assert.Contains(t, out, "[success] User approved")
	assert.Contains(t, out, "Usage: approve <user id>")

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []int{5}, api.approved)
}

func TestREPL_AdminLoginDeniedForRegularUser(t *testing.T) {
	store := emptyStore()
	out := runScript(t, newFakeAPI(), store, "adminlogin\nuser@x\nsecret\npending\nexit\n")

	assert.Contains(t, out, msgAccessDenied)
	assert.Contains(t, out, msgLoginFirst)
	assert.Empty(t, store.Current().Token)
}

func TestREPL_AdminCommandsRefusedForRegularUser(t *testing.T) {
	out := runScript(t, newFakeAPI(), emptyStore(), loginUser+"pending\nexit\n")
	assert.Contains(t, out, msgAccessDenied)
}

func TestREPL_AdminLoginBadCredentials(t *testing.T) {
	out := runScript(t, newFakeAPI(), emptyStore(), "adminlogin\nadmin@x\nwrong\nexit\n")
	assert.Contains(t, out, msgAdminLoginFailed)
	assert.Equal(t, 1, strings.Count(out, "Your session has ended"))
}

func TestREPL_RateLimitWithZeroBurstStillServes(t *testing.T) {
	out := runScript(t, newFakeAPI(), emptyStore(), loginUser+"whoami\nexit\n", func(c *config.Config) {
		c.RateLimit = 1000
		c.RateBurst = 0
	})

	assert.Contains(t, out, "Email:   user@x")
	assert.NotContains(t, out, "burst")
}

func TestREPL_RestoresStoredSession(t *testing.T) {
	store := credentials.NewMemoryRepository(credentials.Stored{Token: "tok-user@x"})
	out := runScript(t, newFakeAPI(), store, "whoami\nexit\n")

	assert.Contains(t, out, "Email:   user@x")
	assert.Contains(t, out, "Plan:    free")
}

func TestREPL_ProjectLifecycle(t *testing.T) {
	api := newFakeAPI()
	out := runScript(t, api, emptyStore(), loginUser+"newproject Protein folding\nfold it\nopen 2\ndelproject 2\ndocs\nexit\n")

	assert.Contains(t, out, `[success] Project "Protein folding" created (id 2).`)
	assert.Contains(t, out, "[success] Project deleted.")
	assert.Contains(t, out, msgOpenProject, "deleting the open project closes it")
}

func TestREPL_UnknownAndUsage(t *testing.T) {
	out := runScript(t, newFakeAPI(), emptyStore(), "frobnicate\n"+loginUser+"open abc\nselect x\nhistory nope\nexit\n")

	assert.Contains(t, out, "Unknown command: frobnicate")
	assert.Contains(t, out, "Usage: open <id>")
	assert.Contains(t, out, msgOpenProject)
}

func TestREPL_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.html")
	out := runScript(t, newFakeAPI(), emptyStore(), loginUser+"open 1\nchat q\nexport "+path+"\nexit\n")
	assert.Contains(t, out, "[success] History exported to "+path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Smith2020, p. 14")
}

func TestREPL_EOFStops(t *testing.T) {
	out := runScript(t, newFakeAPI(), emptyStore(), "help")
	assert.Contains(t, out, "Available commands:")
	assert.NotContains(t, out, "Bye!")
}

func TestREPL_PanicReloadsFromStorage(t *testing.T) {
	commands["boom"] = &command{name: "boom", run: func(*App, context.Context, *runtime, []string) error {
		panic("kaboom")
	}}
	t.Cleanup(func() { delete(commands, "boom") })

	store := emptyStore()
	out := runScript(t, newFakeAPI(), store, loginUser+"boom\nwhoami\nexit\n")

	assert.Contains(t, out, msgCrashed)
	assert.Contains(t, out, "Email:   user@x", "session restored after reload")
	assert.NotContains(t, out, "kaboom")
}

func newReportApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	var out bytes.Buffer
	return NewApp(cfg, emptyStore(), strings.NewReader(""), &out, WithPlainOutput(true)), &out
}

func TestReport(t *testing.T) {
	cmd := &command{name: "open", args: "<id>"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"usage", errUsage, "Usage: open <id>\n"},
		{"cancelled", fmt.Errorf("GET /x: %w", context.Canceled), "Cancelled.\n"},
		{"paywall", &gateway.Error{Status: 402, Message: "pay"}, msgPaywall + "\n"},
		{"already toasted", &gateway.Error{Status: 500, Message: "boom"}, ""},
		{"panicked", errPanicked, ""},
		{"local", chat.ErrSendInFlight, "Error: " + chat.ErrSendInFlight.Error() + "\n"},
		{"wrapped local", errors.Join(errors.New("disk full")), "Error: disk full\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out := newReportApp(t)
			a.report(cmd, tt.err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}
