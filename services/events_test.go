package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mrnavastar/mclaunch/util"
)

func TestBroadcasterDeliversInOrder(t *testing.T) {
	b := NewBroadcaster[int]()
	events, unsubscribe := b.Subscribe()
	defer unsubscribe()

	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(i)
		}
	}()

	for want := 0; want < 1000; want++ {
		select {
		case got := <-events:
			if got != want {
				t.Fatalf("got %d, want %d", got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d", want)
		}
	}
}

func TestBroadcasterUnsubscribeUnblocksPublish(t *testing.T) {
	b := NewBroadcaster[int]()
	_, unsubscribe := b.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(i)
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	unsubscribe()
	unsubscribe()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish stayed blocked after unsubscribe")
	}
	if b.Count() != 0 {
		t.Errorf("count = %d, want 0", b.Count())
	}
}

func TestSessionManifestFetchedOnce(t *testing.T) {
	s := NewSession()
	var calls int32
	fetch := func(context.Context) (util.VersionManifest, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		var m util.VersionManifest
		m.Latest.Release = "1.21.1"
		return m, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := s.Manifest(context.Background(), fetch)
			if err != nil || m.Latest.Release != "1.21.1" {
				t.Errorf("got %+v, %v", m, err)
			}
		}()
	}
	wg.Wait()

	if _, err := s.Manifest(context.Background(), fetch); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
}

func TestSessionManifestFailureNotCached(t *testing.T) {
	s := NewSession()
	fail := true
	fetch := func(context.Context) (util.VersionManifest, error) {
		if fail {
			return util.VersionManifest{}, errors.New("offline")
		}
		return util.VersionManifest{Versions: []util.VersionSummary{{Id: "1.21.1"}}}, nil
	}

	if _, err := s.Manifest(context.Background(), fetch); err == nil {
		t.Fatal("expected error")
	}
	fail = false
	m, err := s.Manifest(context.Background(), fetch)
	if err != nil || len(m.Versions) != 1 {
		t.Fatalf("got %+v, %v", m, err)
	}
}

func TestSessionSlot(t *testing.T) {
	s := NewSession()
	if err := s.begin(); err != nil {
		t.Fatal(err)
	}
	if err := s.begin(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second begin = %v, want ErrAlreadyRunning", err)
	}

	proc := &GameProcess{Pid: 42}
	s.attach(proc)
	if s.State() != Running || s.process() != proc {
		t.Fatalf("state = %s", s.State())
	}

	if got := s.detach(); got != proc || !s.wasKilled(proc) {
		t.Fatal("detach did not hand back the killed process")
	}
	if s.State() != Idle || s.process() != nil {
		t.Fatalf("state after detach = %s", s.State())
	}

	// A stale exit must not clobber a newer launch.
	if err := s.begin(); err != nil {
		t.Fatal(err)
	}
	s.release(proc, Failed)
	if s.State() != Preparing {
		t.Errorf("state = %s, want preparing", s.State())
	}

	s.transition(Failed)
	if err := s.begin(); err != nil {
		t.Errorf("begin after failure = %v", err)
	}
}
