// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_NowStandsStill(t *testing.T) {
	fake := Fake(epoch)
	if !fake.Now().Equal(epoch) {
		t.Fatalf("Now = %v, want %v", fake.Now(), epoch)
	}
	fake.Advance(90 * time.Second)
	if want := epoch.Add(90 * time.Second); !fake.Now().Equal(want) {
		t.Fatalf("Now after Advance = %v, want %v", fake.Now(), want)
	}
}

func TestFake_AfterFiresOnDeadline(t *testing.T) {
	fake := Fake(epoch)
	early := fake.After(time.Second)
	late := fake.After(5 * time.Second)

	fake.Advance(999 * time.Millisecond)
	select {
	case <-early:
		t.Fatal("fired before deadline")
	default:
	}

	fake.Advance(time.Millisecond)
	select {
	case fired := <-early:
		if !fired.Equal(epoch.Add(time.Second)) {
			t.Errorf("fired at %v", fired)
		}
	default:
		t.Fatal("did not fire at deadline")
	}
	if pending := fake.PendingCount(); pending != 1 {
		t.Errorf("PendingCount = %d, want 1", pending)
	}

	fake.Advance(time.Hour)
	select {
	case <-late:
	default:
		t.Fatal("late waiter did not fire")
	}
}

func TestFake_AfterNonPositiveFiresImmediately(t *testing.T) {
	fake := Fake(epoch)
	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
	if pending := fake.PendingCount(); pending != 0 {
		t.Errorf("PendingCount = %d, want 0", pending)
	}
}

func TestFake_WaitForTimers(t *testing.T) {
	fake := Fake(epoch)
	fired := make(chan struct{})
	go func() {
		<-fake.After(time.Minute)
		close(fired)
	}()

	fake.WaitForTimers(1)
	fake.Advance(time.Minute)
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("goroutine did not observe the fired timer")
	}
}
