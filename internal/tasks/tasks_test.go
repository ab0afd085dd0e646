package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/jot/internal/shared"
	tu "github.com/desertthunder/jot/internal/testing"
)

func TestStatusMonitor(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		m := NewStatusMonitor(tu.NewFakeAPI(), 0, nil)
		if m.Interval() != 30*time.Second {
			t.Errorf("expected 30s default interval, got %v", m.Interval())
		}
	})

	t.Run("Check", func(t *testing.T) {
		tests := []struct {
			name       string
			status     string
			fail       error
			wantOnline bool
			wantLabel  string
		}{
			{name: "ok", status: "ok", wantOnline: true, wantLabel: "System Online"},
			{name: "degraded", status: "degraded", wantLabel: "System Offline"},
			{name: "transport error", status: "ok", fail: errors.New("connection refused"), wantLabel: "System Offline"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				fake := tu.NewFakeAPI()
				fake.SetStatus(tt.status)
				if tt.fail != nil {
					fake.Fail("Status", tt.fail)
				}
				m := NewStatusMonitor(fake, time.Minute, nil)

				update := m.Check(context.Background())

				if update.Online != tt.wantOnline {
					t.Errorf("expected online=%v, got %v", tt.wantOnline, update.Online)
				}
				if update.Label() != tt.wantLabel {
					t.Errorf("expected label %q, got %q", tt.wantLabel, update.Label())
				}
				if !tt.wantOnline && update.Err == nil {
					t.Error("expected an error for an offline update")
				}
				if update.CheckedAt.IsZero() {
					t.Error("expected CheckedAt to be set")
				}
			})
		}

		t.Run("Unexpected Status Is Unavailable", func(t *testing.T) {
			fake := tu.NewFakeAPI()
			fake.SetStatus("maintenance")
			update := NewStatusMonitor(fake, time.Minute, nil).Check(context.Background())
			if !errors.Is(update.Err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", update.Err)
			}
			if update.Status != "maintenance" {
				t.Errorf("expected raw status to be kept, got %q", update.Status)
			}
		})
	})

	t.Run("Run Polls Until Canceled", func(t *testing.T) {
		fake := tu.NewFakeAPI()
		m := NewStatusMonitor(fake, 5*time.Millisecond, nil)
		updates := make(chan StatusUpdate, 10)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			m.Run(ctx, updates)
			close(done)
		}()

		for i := 0; i < 3; i++ {
			select {
			case u := <-updates:
				if !u.Online {
					t.Errorf("expected online update, got %+v", u)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for status update")
			}
		}

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})

	t.Run("Run Does Not Block On Full Channel", func(t *testing.T) {
		fake := tu.NewFakeAPI()
		m := NewStatusMonitor(fake, time.Millisecond, nil)
		updates := make(chan StatusUpdate)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		done := make(chan struct{})
		go func() {
			m.Run(ctx, updates)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Run blocked on an unread channel")
		}
		if fake.CallCount("Status") < 2 {
			t.Errorf("expected repeated probes, got %d", fake.CallCount("Status"))
		}
	})

	t.Run("Run With Nil Channel", func(t *testing.T) {
		fake := tu.NewFakeAPI()
		m := NewStatusMonitor(fake, time.Hour, nil)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			m.Run(ctx, nil)
			close(done)
		}()
		for fake.CallCount("Status") == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
		<-done
	})
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		FetchNotes:    "fetch_notes",
		ExportNotes:   "export_notes",
		WriteManifest: "write_manifest",
		Phase(99):     "",
	}
	for phase, want := range tests {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(phase), got, want)
		}
	}
}
