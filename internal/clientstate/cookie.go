package clientstate

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync"
	"time"
)

// CookieBackend adapts a single HTTP request/response pair into a
// Backend. Values are base64-encoded into cookies; the Store's own
// expiry check still applies on top of the cookie Max-Age, so a stale
// cookie replayed by a client is rejected on load.
type CookieBackend struct {
	w http.ResponseWriter
	r *http.Request

	mu      sync.Mutex
	pending map[string][]byte
}

// NewCookieBackend creates a cookie backend bound to one request cycle.
func NewCookieBackend(w http.ResponseWriter, r *http.Request) *CookieBackend {
	return &CookieBackend{w: w, r: r, pending: make(map[string][]byte)}
}

func (b *CookieBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	if v, ok := b.pending[key]; ok {
		b.mu.Unlock()
		return v, nil
	}
	b.mu.Unlock()

	cookie, err := b.r.Cookie(key)
	if err != nil {
		return nil, ErrNotFound
	}

	data, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil, ErrNotFound
	}

	return data, nil
}

func (b *CookieBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	b.pending[key] = value
	b.mu.Unlock()

	http.SetCookie(b.w, &http.Cookie{
		Name:     key,
		Value:    base64.URLEncoding.EncodeToString(value),
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

func (b *CookieBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.pending, key)
	b.mu.Unlock()

	http.SetCookie(b.w, &http.Cookie{
		Name:   key,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	return nil
}
