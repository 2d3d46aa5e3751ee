package folio

import (
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// KV is the persistence interface for per-browser dedup state. Production
// uses the visitor's cookie session; tests use an in-memory map. Keys map to
// the timestamp of the last recorded event.
type KV interface {
	Get(key string) (time.Time, bool)
	Set(key string, t time.Time)
	Delete(key string)
}

// Guard prevents the same browser from inflating a counter with repeated
// increments. Views are deduplicated within a cooldown window; likes are
// binary and permanent. It is a heuristic for a vanity metric: a different
// browser, an incognito session, or cleared cookies will count again.
type Guard struct {
	cooldown time.Duration
	now      func() time.Time
}

// NewGuard creates a Guard with the given view cooldown window.
func NewGuard(cooldown time.Duration) *Guard {
	return &Guard{cooldown: cooldown, now: time.Now}
}

// RecordView counts a page view for slug unless the same browser already
// recorded one inside the cooldown window. It returns the current view count
// and whether an increment actually happened. The timestamp is persisted
// only after a successful increment.
func (g *Guard) RecordView(kv KV, slug string, incr func() (int64, error), read func() (int64, error)) (int64, bool, error) {
	key := viewedKey(slug)
	if t, ok := kv.Get(key); ok && g.now().Sub(t) < g.cooldown {
		n, err := read()
		return n, false, err
	}
	n, err := incr()
	if err != nil {
		return 0, false, err
	}
	kv.Set(key, g.now())
	return n, true, nil
}

// RecordLike counts a like for slug unless this browser already liked it.
// The liked flag is set optimistically before the increment and rolled back
// if the increment fails, so a failed call leaves no local trace.
func (g *Guard) RecordLike(kv KV, slug string, incr func() (int64, error), read func() (int64, error)) (int64, bool, error) {
	key := likedKey(slug)
	if _, ok := kv.Get(key); ok {
		n, err := read()
		return n, false, err
	}
	kv.Set(key, g.now())
	n, err := incr()
	if err != nil {
		kv.Delete(key)
		return 0, false, err
	}
	return n, true, nil
}

// Liked reports whether this browser has already liked slug. Page renders
// use it so the like control comes up in its already-liked state.
func (g *Guard) Liked(kv KV, slug string) bool {
	_, ok := kv.Get(likedKey(slug))
	return ok
}

func viewedKey(slug string) string { return "viewed:" + slug }
func likedKey(slug string) string  { return "liked:" + slug }

const guardSessionName = "visitor"

// visitorKV adapts the visitor's cookie session to the KV interface.
// Timestamps are stored as unix seconds; the cookie travels with the
// browser, which is what makes the dedup per-browser.
type visitorKV struct {
	sess  *sessions.Session
	dirty bool
}

func (a *App) guardKV(c echo.Context) (*visitorKV, error) {
	sess, err := session.Get(guardSessionName, c)
	if err != nil {
		return nil, err
	}
	return &visitorKV{sess: sess}, nil
}

func (k *visitorKV) Get(key string) (time.Time, bool) {
	v, ok := k.sess.Values[key].(int64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(v, 0), true
}

func (k *visitorKV) Set(key string, t time.Time) {
	k.sess.Values[key] = t.Unix()
	k.dirty = true
}

func (k *visitorKV) Delete(key string) {
	delete(k.sess.Values, key)
	k.dirty = true
}

// flush writes the session cookie if any key changed. Must run before the
// response body is written.
func (k *visitorKV) flush(c echo.Context) error {
	if !k.dirty {
		return nil
	}
	return k.sess.Save(c.Request(), c.Response())
}
