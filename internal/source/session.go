package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

const (
	headersFile = "headers.json"
	cookiesFile = "cookies.json"
)

var ErrNoSession = errors.New("no saved session")

// Cookie is a stored cookie in the browser export shape.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// SessionStorage keeps one header and cookie set per region under dir.
type SessionStorage struct {
	dir string
}

func NewSessionStorage(dir string) *SessionStorage {
	return &SessionStorage{dir: dir}
}

func (s *SessionStorage) regionDir(regionCode string) string {
	return filepath.Join(s.dir, filepath.Base(filepath.Clean("/"+regionCode)))
}

func (s *SessionStorage) SaveHeaders(regionCode string, headers map[string]string) error {
	return s.writeJSON(regionCode, headersFile, headers)
}

func (s *SessionStorage) LoadHeaders(regionCode string) (map[string]string, error) {
	var headers map[string]string
	if err := s.readJSON(regionCode, headersFile, &headers); err != nil {
		return nil, err
	}
	return headers, nil
}

func (s *SessionStorage) SaveCookies(regionCode string, cookies []Cookie) error {
	return s.writeJSON(regionCode, cookiesFile, cookies)
}

func (s *SessionStorage) LoadCookies(regionCode string) ([]Cookie, error) {
	var cookies []Cookie
	if err := s.readJSON(regionCode, cookiesFile, &cookies); err != nil {
		return nil, err
	}
	return cookies, nil
}

// HasSession reports whether both the headers and the cookies of a region are stored.
func (s *SessionStorage) HasSession(regionCode string) bool {
	dir := s.regionDir(regionCode)
	for _, name := range []string{headersFile, cookiesFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func (s *SessionStorage) Clear(regionCode string) error {
	dir := s.regionDir(regionCode)
	var errs []error
	for _, name := range []string{headersFile, cookiesFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *SessionStorage) writeJSON(regionCode, name string, v any) error {
	dir := s.regionDir(regionCode)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	if err := os.WriteFile(filepath.Join(dir, name), b, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *SessionStorage) readJSON(regionCode, name string, v any) error {
	b, err := os.ReadFile(filepath.Join(s.regionDir(regionCode), name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}

var _ Credentials = (*SessionCredentials)(nil)

// SessionCredentials serves credentials captured into a SessionStorage.
type SessionCredentials struct {
	storage *SessionStorage
	logger  *slog.Logger
}

func NewSessionCredentials(storage *SessionStorage, logger *slog.Logger) *SessionCredentials {
	return &SessionCredentials{
		storage: storage,
		logger:  logger.With(slog.String("service", "session")),
	}
}

func (c *SessionCredentials) Load(_ context.Context, regionCode string) (Session, error) {
	if !c.storage.HasSession(regionCode) {
		return Session{}, ErrNoSession
	}

	headers, err := c.storage.LoadHeaders(regionCode)
	if err != nil {
		return Session{}, fmt.Errorf("load headers: %w", err)
	}
	cookies, err := c.storage.LoadCookies(regionCode)
	if err != nil {
		return Session{}, fmt.Errorf("load cookies: %w", err)
	}

	jar := make(map[string]string, len(cookies))
	for _, ck := range cookies {
		if ck.Name == "" || ck.Value == "" {
			continue
		}
		jar[ck.Name] = ck.Value
	}

	return Session{Headers: headers, Cookies: jar}, nil
}

func (c *SessionCredentials) Expire(ctx context.Context, regionCode string) error {
	c.logger.WarnContext(ctx, "session expired, clearing")
	if err := c.storage.Clear(regionCode); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Update merges cookies into the stored set, replacing entries with the same name.
func (c *SessionCredentials) Update(_ context.Context, regionCode string, cookies []*http.Cookie) error {
	stored, err := c.storage.LoadCookies(regionCode)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return fmt.Errorf("load cookies: %w", err)
	}

	index := make(map[string]int, len(stored))
	for i, ck := range stored {
		index[ck.Name] = i
	}

	for _, hc := range cookies {
		ck := Cookie{
			Name:     hc.Name,
			Value:    hc.Value,
			Domain:   hc.Domain,
			Path:     hc.Path,
			HTTPOnly: hc.HttpOnly,
			Secure:   hc.Secure,
		}
		if !hc.Expires.IsZero() {
			ck.Expires = float64(hc.Expires.Unix())
		}
		if i, ok := index[ck.Name]; ok {
			stored[i] = ck
			continue
		}
		index[ck.Name] = len(stored)
		stored = append(stored, ck)
	}

	if err := c.storage.SaveCookies(regionCode, stored); err != nil {
		return fmt.Errorf("save cookies: %w", err)
	}
	return nil
}
