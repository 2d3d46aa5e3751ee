package folio

import (
	"errors"
	"testing"
	"time"

	"github.com/gorilla/sessions"
)

// mapKV is an in-memory KV for exercising the guard without a session.
type mapKV map[string]time.Time

func (m mapKV) Get(key string) (time.Time, bool) {
	t, ok := m[key]
	return t, ok
}

func (m mapKV) Set(key string, t time.Time) { m[key] = t }
func (m mapKV) Delete(key string)           { delete(m, key) }

// fakeCounter mimics the store side of the guard contract.
type fakeCounter struct {
	n    int64
	fail error
}

func (f *fakeCounter) incr() (int64, error) {
	if f.fail != nil {
		return 0, f.fail
	}
	f.n++
	return f.n, nil
}

func (f *fakeCounter) read() (int64, error) {
	return f.n, nil
}

func setupTestGuard(cooldown time.Duration) (*Guard, *time.Time) {
	g := NewGuard(cooldown)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	return g, &now
}

func TestRecordViewCooldown(t *testing.T) {
	g, now := setupTestGuard(time.Hour)
	kv := mapKV{}
	ctr := &fakeCounter{}

	n, counted, err := g.RecordView(kv, "post", ctr.incr, ctr.read)
	if err != nil {
		t.Fatalf("first view failed: %v", err)
	}
	if !counted || n != 1 {
		t.Errorf("first view = (%d, %v), want (1, true)", n, counted)
	}

	// Second view inside the window reads without incrementing.
	*now = now.Add(30 * time.Minute)
	n, counted, err = g.RecordView(kv, "post", ctr.incr, ctr.read)
	if err != nil {
		t.Fatalf("second view failed: %v", err)
	}
	if counted || n != 1 {
		t.Errorf("second view = (%d, %v), want (1, false)", n, counted)
	}

	// Past the window the view counts again.
	*now = now.Add(31 * time.Minute)
	n, counted, err = g.RecordView(kv, "post", ctr.incr, ctr.read)
	if err != nil {
		t.Fatalf("third view failed: %v", err)
	}
	if !counted || n != 2 {
		t.Errorf("third view = (%d, %v), want (2, true)", n, counted)
	}
}

func TestRecordViewPerSlug(t *testing.T) {
	g, _ := setupTestGuard(time.Hour)
	kv := mapKV{}
	a := &fakeCounter{}
	b := &fakeCounter{}

	if _, counted, _ := g.RecordView(kv, "first", a.incr, a.read); !counted {
		t.Error("view on first slug should count")
	}
	if _, counted, _ := g.RecordView(kv, "second", b.incr, b.read); !counted {
		t.Error("view on a different slug should count independently")
	}
}

func TestRecordViewIncrementFailure(t *testing.T) {
	g, _ := setupTestGuard(time.Hour)
	kv := mapKV{}
	boom := errors.New("db gone")
	ctr := &fakeCounter{fail: boom}

	if _, _, err := g.RecordView(kv, "post", ctr.incr, ctr.read); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want db error", err)
	}
	// A failed increment must not start the cooldown.
	if _, ok := kv["viewed:post"]; ok {
		t.Error("cooldown recorded despite failed increment")
	}

	ctr.fail = nil
	if _, counted, _ := g.RecordView(kv, "post", ctr.incr, ctr.read); !counted {
		t.Error("retry after failure should count")
	}
}

func TestRecordLikePermanent(t *testing.T) {
	g, now := setupTestGuard(time.Hour)
	kv := mapKV{}
	ctr := &fakeCounter{}

	n, counted, err := g.RecordLike(kv, "post", ctr.incr, ctr.read)
	if err != nil {
		t.Fatalf("first like failed: %v", err)
	}
	if !counted || n != 1 {
		t.Errorf("first like = (%d, %v), want (1, true)", n, counted)
	}

	// Likes never expire, no matter how much time passes.
	*now = now.Add(100 * 24 * time.Hour)
	n, counted, err = g.RecordLike(kv, "post", ctr.incr, ctr.read)
	if err != nil {
		t.Fatalf("second like failed: %v", err)
	}
	if counted || n != 1 {
		t.Errorf("second like = (%d, %v), want (1, false)", n, counted)
	}
}

func TestLiked(t *testing.T) {
	g, _ := setupTestGuard(time.Hour)
	kv := mapKV{}
	ctr := &fakeCounter{}

	if g.Liked(kv, "post") {
		t.Error("fresh browser should not report liked")
	}
	if _, _, err := g.RecordLike(kv, "post", ctr.incr, ctr.read); err != nil {
		t.Fatal(err)
	}
	if !g.Liked(kv, "post") {
		t.Error("browser should report liked after a recorded like")
	}
	if g.Liked(kv, "other") {
		t.Error("liked state must be per slug")
	}
}

func TestRecordLikeRollback(t *testing.T) {
	g, _ := setupTestGuard(time.Hour)
	kv := mapKV{}
	boom := errors.New("db gone")
	ctr := &fakeCounter{fail: boom}

	if _, _, err := g.RecordLike(kv, "post", ctr.incr, ctr.read); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want db error", err)
	}
	// The optimistic liked flag must be rolled back so a later attempt
	// can succeed.
	if _, ok := kv["liked:post"]; ok {
		t.Error("liked flag left behind after failed increment")
	}

	ctr.fail = nil
	if _, counted, _ := g.RecordLike(kv, "post", ctr.incr, ctr.read); !counted {
		t.Error("retry after failure should count")
	}
}

func TestVisitorKVRoundTrip(t *testing.T) {
	kv := &visitorKV{sess: &sessions.Session{Values: map[interface{}]interface{}{}}}

	if _, ok := kv.Get("viewed:post"); ok {
		t.Error("empty session should report no key")
	}
	if kv.dirty {
		t.Error("reads must not dirty the session")
	}

	// Session values survive as unix seconds, so sub-second precision is
	// deliberately dropped.
	at := time.Date(2025, 6, 1, 12, 0, 0, 500_000_000, time.UTC)
	kv.Set("viewed:post", at)
	if !kv.dirty {
		t.Error("Set should dirty the session")
	}
	got, ok := kv.Get("viewed:post")
	if !ok || !got.Equal(at.Truncate(time.Second)) {
		t.Errorf("Get = (%v, %v), want %v", got, ok, at.Truncate(time.Second))
	}

	kv.Delete("viewed:post")
	if _, ok := kv.Get("viewed:post"); ok {
		t.Error("key survives Delete")
	}
}
