// PixelRelay - Conversion Event Tracking Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pixelrelay

package identity

import (
	"net/http"
	"sync"
	"time"
)

// Storage is a small key/value store for visitor identifiers.
type Storage interface {
	// Get returns the stored value and whether one exists.
	Get(key string) (string, bool)

	// Set stores value under key.
	Set(key, value string)

	// GetOrCreate returns the stored value, or stores and returns create().
	GetOrCreate(key string, create func() string) string
}

// Stores pairs the durable and session stores consulted for the external id.
// Either may be nil.
type Stores struct {
	Durable Storage
	Session Storage
}

// MemoryStorage is a process-local Storage.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *MemoryStorage) GetOrCreate(key string, create func() string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; ok && v != "" {
		return v
	}
	v := create()
	m.values[key] = v
	return v
}

// CookieOptions controls cookies written by CookieStorage.
type CookieOptions struct {
	Domain string
	Path   string

	// MaxAge of zero writes a session cookie.
	MaxAge time.Duration

	Secure bool

	// Suffix is appended to every key to form the cookie name, which keeps
	// durable and session cookies for the same key apart.
	Suffix string
}

// CookieStorage stores values in first-party cookies of one HTTP exchange.
// Values written during the exchange are visible to later Gets.
//
// The read-then-write in GetOrCreate is not atomic across concurrent requests
// from the same browser; two ids can briefly coexist for one visitor.
type CookieStorage struct {
	r    *http.Request
	w    http.ResponseWriter
	opts CookieOptions

	mu      sync.Mutex
	pending map[string]string
}

// NewCookieStorage creates a CookieStorage reading from r and writing to w.
// A nil w makes the storage read-only.
func NewCookieStorage(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStorage {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &CookieStorage{r: r, w: w, opts: opts, pending: make(map[string]string)}
}

func (c *CookieStorage) name(key string) string {
	return key + c.opts.Suffix
}

func (c *CookieStorage) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

func (c *CookieStorage) get(key string) (string, bool) {
	if v, ok := c.pending[key]; ok {
		return v, true
	}
	if c.r == nil {
		return "", false
	}
	ck, err := c.r.Cookie(c.name(key))
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (c *CookieStorage) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
}

func (c *CookieStorage) set(key, value string) {
	c.pending[key] = value
	if c.w == nil {
		return
	}
	ck := &http.Cookie{
		Name:     c.name(key),
		Value:    value,
		Path:     c.opts.Path,
		Domain:   c.opts.Domain,
		Secure:   c.opts.Secure,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	}
	if c.opts.MaxAge > 0 {
		ck.MaxAge = int(c.opts.MaxAge.Seconds())
		ck.Expires = time.Now().Add(c.opts.MaxAge)
	}
	http.SetCookie(c.w, ck)
}

func (c *CookieStorage) GetOrCreate(key string, create func() string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.get(key); ok {
		return v
	}
	v := create()
	c.set(key, v)
	return v
}

// CookieConfig describes the first-party cookies backing NewCookieStores.
type CookieConfig struct {
	Domain string
	MaxAge time.Duration
	Secure bool
}

// NewCookieStores returns a persistent cookie as durable storage and a
// session cookie (suffix "_session") as session storage.
func NewCookieStores(w http.ResponseWriter, r *http.Request, cfg CookieConfig) Stores {
	return Stores{
		Durable: NewCookieStorage(w, r, CookieOptions{Domain: cfg.Domain, MaxAge: cfg.MaxAge, Secure: cfg.Secure}),
		Session: NewCookieStorage(w, r, CookieOptions{Domain: cfg.Domain, Secure: cfg.Secure, Suffix: "_session"}),
	}
}
