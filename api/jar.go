// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Jar is a cookie jar scoped to the single Upkeep API origin. It holds
// the session cookies the server sets on login and refresh, and — when
// created with NewPersistentJar — mirrors them to a file so that a new
// process resumes the same session, the way a browser tab resumes after
// a reload.
//
// Cookies are keyed by host and name. Path, domain, and public-suffix
// matching are deliberately not implemented: the client only ever talks
// to one origin, and the jar refuses to present a cookie to any other
// host.
type Jar struct {
	mu      sync.Mutex
	path    string // empty for in-memory jars
	cookies map[string]map[string]storedCookie
}

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// NewJar creates a cookie jar. With an empty path the jar is in-memory
// only; otherwise cookies are loaded from and mirrored to the file at
// path (written with mode 0600 — it holds session credentials).
func NewJar(path string) *Jar {
	jar := &Jar{
		path:    path,
		cookies: make(map[string]map[string]storedCookie),
	}
	if path != "" {
		// A missing or corrupt file means "no saved session" — the
		// first authenticated call will repopulate it.
		jar.load()
	}
	return jar
}

// NewPersistentJar creates a jar backed by the given file path.
func NewPersistentJar(path string) *Jar {
	return NewJar(path)
}

// SetCookies records the cookies from a response. Cookies with a
// negative MaxAge or an Expires in the past are deletions — the server
// clears its session cookies this way on logout.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	host := u.Hostname()
	byName := j.cookies[host]
	if byName == nil {
		byName = make(map[string]storedCookie)
		j.cookies[host] = byName
	}

	now := time.Now()
	for _, cookie := range cookies {
		expires := cookie.Expires
		if cookie.MaxAge > 0 {
			expires = now.Add(time.Duration(cookie.MaxAge) * time.Second)
		}

		deleted := cookie.MaxAge < 0 || (!expires.IsZero() && expires.Before(now))
		if deleted {
			delete(byName, cookie.Name)
			continue
		}
		byName[cookie.Name] = storedCookie{
			Name:    cookie.Name,
			Value:   cookie.Value,
			Expires: expires,
		}
	}

	j.persistLocked()
}

// Cookies returns the live cookies for u's host. Hosts the jar has
// never seen get nothing — session cookies must not travel to other
// origins (e.g., across an unexpected redirect).
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	byName := j.cookies[u.Hostname()]
	if len(byName) == 0 {
		return nil
	}

	now := time.Now()
	result := make([]*http.Cookie, 0, len(byName))
	for _, stored := range byName {
		if !stored.Expires.IsZero() && stored.Expires.Before(now) {
			continue
		}
		result = append(result, &http.Cookie{Name: stored.Name, Value: stored.Value})
	}
	return result
}

// Clear drops every cookie and removes the backing file's contents.
// Used by logout to guarantee the local session is gone even when the
// server-side invalidation call failed.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.cookies = make(map[string]map[string]storedCookie)
	j.persistLocked()
}

// load reads the backing file. Errors are swallowed: an unreadable jar
// file is indistinguishable from a logged-out state, and the next login
// rewrites it.
func (j *Jar) load() {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return
	}
	var stored map[string]map[string]storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return
	}
	j.cookies = stored
}

// persistLocked mirrors the jar to disk. Callers hold j.mu.
func (j *Jar) persistLocked() {
	if j.path == "" {
		return
	}
	if err := writeCookieFile(j.path, j.cookies); err != nil {
		// Persistence is best-effort: the in-memory jar still works
		// for the life of this process.
		return
	}
}

func writeCookieFile(path string, cookies map[string]map[string]storedCookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("api: marshaling cookie jar: %w", err)
	}
	data = append(data, '\n')

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("api: creating cookie directory %s: %w", directory, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("api: writing cookie file %s: %w", path, err)
	}
	return nil
}
