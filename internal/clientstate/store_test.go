package clientstate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type popupFlag struct {
	ShownAt time.Time `json:"shownAt"`
}

func newRedisStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(NewRedisBackend(client)), mr
}

func TestStore_RedisRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	shown := popupFlag{ShownAt: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save(ctx, "visitor-1:campaign_popup", shown, time.Hour))

	var got popupFlag
	require.NoError(t, store.Load(ctx, "visitor-1:campaign_popup", &got))
	assert.Equal(t, shown.ShownAt, got.ShownAt)
}

func TestStore_MissingKey(t *testing.T) {
	store, _ := newRedisStore(t)

	var got popupFlag
	err := store.Load(context.Background(), "no-such-key", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", popupFlag{}, time.Hour))
	require.NoError(t, store.Delete(ctx, "k"))

	var got popupFlag
	assert.ErrorIs(t, store.Load(ctx, "k", &got), ErrNotFound)
}

func TestStore_ExpiryCheckedOnLoad(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	current := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	require.NoError(t, store.Save(ctx, "k", popupFlag{ShownAt: current}, time.Hour))

	// Still valid just inside the window.
	current = current.Add(59 * time.Minute)
	var got popupFlag
	require.NoError(t, store.Load(ctx, "k", &got))

	// Past ExpiresAt the record is rejected even though the backend still
	// holds it, and the stale entry is cleaned up.
	current = current.Add(2 * time.Minute)
	assert.ErrorIs(t, store.Load(ctx, "k", &got), ErrNotFound)
	assert.ErrorIs(t, store.Load(ctx, "k", &got), ErrNotFound)
}

func TestCookieBackend_RoundTripAcrossRequests(t *testing.T) {
	ctx := context.Background()

	// First request: nothing stored yet, then save.
	w1 := httptest.NewRecorder()
	r1 := httptest.NewRequest(http.MethodGet, "/popup", nil)
	store1 := NewStore(NewCookieBackend(w1, r1))

	var got popupFlag
	assert.ErrorIs(t, store1.Load(ctx, "campaign_popup", &got), ErrNotFound)

	shown := popupFlag{ShownAt: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, store1.Save(ctx, "campaign_popup", shown, time.Hour))

	cookies := w1.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "campaign_popup", cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)

	// Second request: the browser replays the cookie.
	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodGet, "/popup", nil)
	r2.AddCookie(cookies[0])
	store2 := NewStore(NewCookieBackend(w2, r2))

	require.NoError(t, store2.Load(ctx, "campaign_popup", &got))
	assert.Equal(t, shown.ShownAt, got.ShownAt)
}

func TestCookieBackend_SameRequestReadAfterWrite(t *testing.T) {
	ctx := context.Background()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/popup", nil)
	store := NewStore(NewCookieBackend(w, r))

	require.NoError(t, store.Save(ctx, "campaign_popup", popupFlag{}, time.Hour))

	// A read within the same request must see the pending write even
	// though the request carries no cookie.
	var got popupFlag
	require.NoError(t, store.Load(ctx, "campaign_popup", &got))
}

func TestCookieBackend_DeleteExpiresCookie(t *testing.T) {
	ctx := context.Background()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/popup", nil)
	backend := NewCookieBackend(w, r)
	store := NewStore(backend)

	require.NoError(t, store.Save(ctx, "campaign_popup", popupFlag{}, time.Hour))
	require.NoError(t, store.Delete(ctx, "campaign_popup"))

	var got popupFlag
	assert.ErrorIs(t, store.Load(ctx, "campaign_popup", &got), ErrNotFound)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, -1, cookies[1].MaxAge)
}

func TestCookieBackend_GarbageCookieIsNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/popup", nil)
	r.AddCookie(&http.Cookie{Name: "campaign_popup", Value: "%%%not-base64%%%"})
	backend := NewCookieBackend(w, r)

	_, err := backend.Get(context.Background(), "campaign_popup")
	assert.ErrorIs(t, err, ErrNotFound)
}
