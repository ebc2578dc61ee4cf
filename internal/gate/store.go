// internal/gate/store.go
package gate

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"funnelgate/internal/logger"
)

// Store persists the session identifier across page loads for one browser.
// A stored identifier never expires; replaying a leaked identifier is a
// known, accepted gap.
type Store interface {
	Get(r *http.Request) (string, bool)
	Set(w http.ResponseWriter, r *http.Request, sessionID string) error
}

// CookieStore keeps the identifier in a session-scoped cookie under a
// fixed name. This is the single-instance default.
type CookieStore struct {
	Name string
}

func NewCookieStore(name string) *CookieStore {
	return &CookieStore{Name: name}
}

func (s *CookieStore) Get(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (s *CookieStore) Set(w http.ResponseWriter, r *http.Request, sessionID string) error {
	http.SetCookie(w, &http.Cookie{
		Name:     s.Name,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

const deviceCookieName = "fg_device"

// RedisStore keys the identifier off a per-device cookie so the stored
// value is shared across server instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(deviceCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	val, err := s.client.Get(r.Context(), sessionKey(cookie.Value)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		logger.LogError("Redis session lookup failed: %v", err)
		return "", false
	}
	return val, true
}

func (s *RedisStore) Set(w http.ResponseWriter, r *http.Request, sessionID string) error {
	deviceID := ""
	if cookie, err := r.Cookie(deviceCookieName); err == nil {
		deviceID = cookie.Value
	}
	if deviceID == "" {
		deviceID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     deviceCookieName,
			Value:    deviceID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	if err := s.client.Set(r.Context(), sessionKey(deviceID), sessionID, 0).Err(); err != nil {
		return fmt.Errorf("storing session identifier: %w", err)
	}
	return nil
}

func sessionKey(deviceID string) string {
	return "gate:session:" + deviceID
}
