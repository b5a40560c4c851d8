package session

import (
	"errors"
	"sync"
	"testing"
)

func TestRegisterSocket(t *testing.T) {
	r := NewRegistry()

	if replaced := r.RegisterSocket("p1", "s1"); replaced != "" {
		t.Errorf("expected no replaced socket, got %q", replaced)
	}
	if _, err := r.ApplyRuntimeAction("p1", "c1", ActionPlay); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if replaced := r.RegisterSocket("p1", "s1"); replaced != "" {
		t.Errorf("re-registering the same socket should not report a replacement, got %q", replaced)
	}

	replaced := r.RegisterSocket("p1", "s2")
	if replaced != "s1" {
		t.Errorf("expected replaced socket s1, got %q", replaced)
	}

	s, ok := r.Get("p1")
	if !ok {
		t.Fatal("expected session")
	}
	if s.SocketID != "s2" || s.CharacterID != "c1" || !s.IsPlaying {
		t.Errorf("expected state preserved across socket change, got %+v", s)
	}
}

func TestUnregisterSocket(t *testing.T) {
	r := NewRegistry()
	r.RegisterSocket("p1", "s1")
	_, _ = r.ApplyRuntimeAction("p1", "c1", ActionPlay)
	r.RegisterSocket("p1", "s2")

	// the superseded socket disconnecting must not touch the new session
	if pause, id := r.UnregisterSocket("p1", "s1"); pause || id != "" {
		t.Errorf("stale socket unregister should be a no-op, got %v %q", pause, id)
	}
	if r.SocketID("p1") != "s2" {
		t.Errorf("expected socket s2 still bound")
	}

	pause, id := r.UnregisterSocket("p1", "s2")
	if !pause || id != "c1" {
		t.Errorf("expected pause for c1, got %v %q", pause, id)
	}
	if _, ok := r.Get("p1"); ok {
		t.Error("expected session removed")
	}

	if pause, _ := r.UnregisterSocket("nobody", "s9"); pause {
		t.Error("unknown player should not pause")
	}
}

func TestUnregisterSocket_PausedDoesNotPause(t *testing.T) {
	r := NewRegistry()
	r.RegisterSocket("p1", "s1")
	_, _ = r.ApplyRuntimeAction("p1", "c1", ActionPause)

	pause, id := r.UnregisterSocket("p1", "s1")
	if pause {
		t.Error("paused session should not request a pause")
	}
	if id != "c1" {
		t.Errorf("expected character c1, got %q", id)
	}
}

func TestApplyRuntimeAction(t *testing.T) {
	r := NewRegistry()

	if _, err := r.ApplyRuntimeAction("p1", "c1", ActionPlay); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession, got %v", err)
	}

	r.RegisterSocket("p1", "s1")
	if _, err := r.ApplyRuntimeAction("p1", "c1", "dance"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}

	up, err := r.ApplyRuntimeAction("p1", "c1", ActionPlay)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if up.CharacterToStop != "" || up.State != StatePlaying {
		t.Errorf("unexpected update %+v", up)
	}
	if !r.IsPlaying("p1", "c1") || r.RuntimeState("p1") != StatePlaying {
		t.Error("expected p1 playing c1")
	}

	// same character again stops nothing
	up, _ = r.ApplyRuntimeAction("p1", "c1", ActionPlay)
	if up.CharacterToStop != "" {
		t.Errorf("expected nothing to stop, got %q", up.CharacterToStop)
	}

	up, _ = r.ApplyRuntimeAction("p1", "c2", ActionPlay)
	if up.CharacterToStop != "c1" {
		t.Errorf("expected c1 to stop, got %q", up.CharacterToStop)
	}
	if r.IsPlaying("p1", "c1") || !r.IsPlaying("p1", "c2") {
		t.Error("expected only c2 playing")
	}

	up, _ = r.ApplyRuntimeAction("p1", "c2", ActionPause)
	if up.State != StatePaused || r.IsPlaying("p1", "c2") {
		t.Error("expected paused")
	}
	if r.RuntimeState("nobody") != StatePaused {
		t.Error("unknown player should read as paused")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	r.RegisterSocket("p1", "s1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = r.ApplyRuntimeAction("p1", "c1", ActionPlay)
		}()
		go func() {
			defer wg.Done()
			_, _ = r.ApplyRuntimeAction("p1", "c2", ActionPlay)
		}()
	}
	wg.Wait()

	s, _ := r.Get("p1")
	if s.CharacterID != "c1" && s.CharacterID != "c2" {
		t.Errorf("unexpected character %q", s.CharacterID)
	}
	if r.IsPlaying("p1", "c1") == r.IsPlaying("p1", "c2") {
		t.Error("expected exactly one playing character")
	}
}
