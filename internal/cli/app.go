package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sangwon4052/sangwon-sign-off/internal/client"
	"github.com/sangwon4052/sangwon-sign-off/internal/refresh"
	"github.com/sangwon4052/sangwon-sign-off/internal/session"
)

var errNotAuthenticated = errors.New(`not authenticated, run "signoff login" first`)

// App is the CLI's application state. It is opened once per invocation,
// before any command runs, and closed when the command returns.
type App struct {
	Out io.Writer
	Err io.Writer
	In  io.Reader

	SessionPath string
	ServerURL   string
	JSON        bool

	Session *session.Session
	Client  *client.Client

	mu    sync.Mutex
	watch *refresh.Loop[*client.Dashboard]
	input *bufio.Reader
	now   func() time.Time
}

func NewApp(out, errOut io.Writer, in io.Reader) *App {
	return &App{Out: out, Err: errOut, In: in, now: time.Now}
}

// Open loads the session and builds the API client.
func (a *App) Open() error {
	path := a.SessionPath
	if path == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return fmt.Errorf("locating session file: %w", err)
		}
		path = p
	}

	s, err := session.Load(path)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if a.ServerURL != "" {
		s.ServerURL = a.ServerURL
	}
	a.Session = s
	a.Client = client.NewClient(s.ServerURL, s.Token)
	return nil
}

// Close stops background work tied to the session.
func (a *App) Close() {
	a.mu.Lock()
	loop := a.watch
	a.watch = nil
	a.mu.Unlock()
	if loop != nil {
		loop.Stop()
	}
}

func (a *App) setWatch(loop *refresh.Loop[*client.Dashboard]) {
	a.mu.Lock()
	a.watch = loop
	a.mu.Unlock()
}

// signIn records a login in the session and points the client at the new token.
func (a *App) signIn(result *client.LoginResult) error {
	a.Session.Begin(result.Token, result.ExpiresAt, result.User)
	if err := a.Session.Save(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	a.Client = client.NewClient(a.Session.ServerURL, result.Token)
	return nil
}

// signOut tears the session down: the refresh loop stops first so no
// refresh fires against a cleared session.
func (a *App) signOut() error {
	a.Close()
	if err := a.Session.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	a.Client = client.NewClient(a.Session.ServerURL, "")
	return nil
}

func (a *App) requireAuth() error {
	if a.Session == nil || !a.Session.Active(a.now()) {
		return errNotAuthenticated
	}
	return nil
}

// currentRole is the role cached at login.
func (a *App) currentRole() string {
	if a.Session == nil || a.Session.User == nil {
		return ""
	}
	return a.Session.User.Role
}

// prompt reads one line from In after printing label to Err.
func (a *App) prompt(label string) (string, error) {
	if a.input == nil {
		a.input = bufio.NewReader(a.In)
	}
	fmt.Fprint(a.Err, label)
	line, err := a.input.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

func isUnauthorized(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// explain rewrites API errors into CLI-facing messages.
func explain(action string, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusUnauthorized && apiErr.Message != "invalid email or password" &&
			apiErr.Message != "account is awaiting administrator approval" {
			return fmt.Errorf(`%s: session expired, run "signoff login" again`, action)
		}
		return fmt.Errorf("%s: %s", action, apiErr.Message)
	}
	return fmt.Errorf("%s: %w", action, err)
}
