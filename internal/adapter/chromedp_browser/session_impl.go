package chromedp_browser

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/internal/repository"
)

// StoredCookie uses the same field names as browser-automation storage-state
// files, so a state exported by other tooling can be reused.
type StoredCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // unix seconds, -1 for session cookies
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

type StorageState struct {
	Cookies []StoredCookie `json:"cookies"`
}

// SessionOptions configures session bootstrap.
type SessionOptions struct {
	StatePath   string
	ProfileDir  string
	Interactive bool
	LoginURL    string
	// NavigationTimeout bounds the load of the login page.
	NavigationTimeout time.Duration
}

// SessionManager restores or creates the authenticated browsing session.
type SessionManager struct {
	browser *Browser
	opts    SessionOptions
	prompt  io.Writer
	input   io.Reader
	logger  *zap.Logger
}

var _ repository.SessionProvider = (*SessionManager)(nil)

// NewSessionManager reads the login confirmation from input and writes
// instructions to prompt.
func NewSessionManager(browser *Browser, opts SessionOptions, prompt io.Writer, input io.Reader, logger *zap.Logger) *SessionManager {
	return &SessionManager{browser: browser, opts: opts, prompt: prompt, input: input, logger: logger}
}

// Bootstrap prefers a stored state, then a persistent profile, then an
// interactive login. Without any of them the run continues anonymously.
func (s *SessionManager) Bootstrap(ctx context.Context) (*entity.Session, error) {
	if s.opts.StatePath != "" {
		state, err := LoadStorageState(s.opts.StatePath)
		switch {
		case err == nil:
			if err := s.restore(ctx, state); err != nil {
				return nil, err
			}
			s.logger.Info("Session restored from storage state", zap.String("path", s.opts.StatePath), zap.Int("cookies", len(state.Cookies)))
			return &entity.Session{Source: "storage_state", Path: s.opts.StatePath, Cookies: len(state.Cookies)}, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	if s.opts.ProfileDir != "" {
		s.logger.Info("Using persistent browser profile", zap.String("path", s.opts.ProfileDir))
		return &entity.Session{Source: "profile", Path: s.opts.ProfileDir}, nil
	}

	if s.opts.Interactive {
		return s.Login(ctx)
	}

	s.logger.Warn("No stored session found and interactive login is disabled, continuing without login")
	return &entity.Session{Source: "none"}, nil
}

// Login opens the login page, blocks until the operator confirms on input,
// then persists the cookies to the storage-state file.
func (s *SessionManager) Login(ctx context.Context) (*entity.Session, error) {
	if s.opts.LoginURL == "" {
		return nil, errors.New("login URL is not configured")
	}
	if err := s.browser.Navigate(ctx, s.opts.LoginURL, s.opts.NavigationTimeout); err != nil {
		return nil, fmt.Errorf("failed to open login page: %w", err)
	}

	fmt.Fprintf(s.prompt, "Log in to %s in the browser window, then press ENTER here to continue.\n", s.opts.LoginURL)
	if err := waitForEnter(ctx, s.input); err != nil {
		return nil, err
	}

	session := &entity.Session{Source: "interactive", Path: s.opts.StatePath}
	if s.opts.StatePath == "" {
		return session, nil
	}
	n, err := s.Save(ctx)
	if err != nil {
		return nil, err
	}
	session.Cookies = n
	s.logger.Info("Session saved", zap.String("path", s.opts.StatePath), zap.Int("cookies", n))
	return session, nil
}

// Save writes the browser's cookies to the storage-state file.
func (s *SessionManager) Save(ctx context.Context) (int, error) {
	runCtx, cancel := s.browser.runContext(ctx, s.browser.opts.ActionTimeout)
	defer cancel()

	var cookies []*network.Cookie
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return 0, fmt.Errorf("failed to read browser cookies: %w", err)
	}

	state := FromCookies(cookies)
	if err := SaveStorageState(s.opts.StatePath, state); err != nil {
		return 0, err
	}
	return len(state.Cookies), nil
}

func (s *SessionManager) restore(ctx context.Context, state *StorageState) error {
	if len(state.Cookies) == 0 {
		return nil
	}
	runCtx, cancel := s.browser.runContext(ctx, s.browser.opts.ActionTimeout)
	defer cancel()

	params := state.CookieParams()
	if err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	})); err != nil {
		return fmt.Errorf("failed to restore browser cookies: %w", err)
	}
	return nil
}

func waitForEnter(ctx context.Context, r io.Reader) error {
	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(r).ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// FromCookies converts browser cookies to their stored form.
func FromCookies(cookies []*network.Cookie) *StorageState {
	state := &StorageState{Cookies: make([]StoredCookie, 0, len(cookies))}
	for _, c := range cookies {
		expires := c.Expires
		if c.Session {
			expires = -1
		}
		state.Cookies = append(state.Cookies, StoredCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return state
}

// CookieParams converts the stored cookies to the form the browser accepts.
func (s *StorageState) CookieParams() []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != "" {
			p.SameSite = network.CookieSameSite(c.SameSite)
		}
		if c.Expires > 0 {
			exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &exp
		}
		params = append(params, p)
	}
	return params
}

func LoadStorageState(path string) (*StorageState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage state: %w", err)
	}
	var state StorageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse storage state %s: %w", path, err)
	}
	return &state, nil
}

func SaveStorageState(path string, state *StorageState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create storage state dir: %w", err)
		}
	}
	// Cookies are credentials.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write storage state: %w", err)
	}
	return nil
}
