package sysadapter

import (
	"errors"
	"strings"
	"testing"
)

func TestSystemdManager_State(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		wantExists bool
		wantActive bool
	}{
		{
			name:       "loaded and active",
			output:     "LoadState=loaded\nActiveState=active\n",
			wantExists: true,
			wantActive: true,
		},
		{
			name:       "loaded but stopped",
			output:     "LoadState=loaded\nActiveState=inactive\n",
			wantExists: true,
			wantActive: false,
		},
		{
			name:       "unknown unit",
			output:     "LoadState=not-found\nActiveState=inactive\n",
			wantExists: false,
			wantActive: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotArgs []string
			m := &SystemdManager{run: func(args ...string) (string, error) {
				gotArgs = args
				return tt.output, nil
			}}

			state, err := m.State("nginx")
			if err != nil {
				t.Fatalf("State: %v", err)
			}
			if state.Exists != tt.wantExists || state.Active != tt.wantActive {
				t.Errorf("State = exists %v active %v, want %v %v",
					state.Exists, state.Active, tt.wantExists, tt.wantActive)
			}
			if gotArgs[0] != "show" || gotArgs[1] != "nginx.service" {
				t.Errorf("ran systemctl %v, want show nginx.service", gotArgs)
			}
		})
	}
}

func TestSystemdManager_StopStart(t *testing.T) {
	var calls [][]string
	m := &SystemdManager{run: func(args ...string) (string, error) {
		calls = append(calls, args)
		return "", nil
	}}

	if err := m.Stop("nginx"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := m.Start("tidy.timer"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := strings.Join(calls[0], " "); got != "stop nginx.service" {
		t.Errorf("first call = %q, want stop nginx.service", got)
	}
	// A name carrying a unit suffix is passed through untouched.
	if got := strings.Join(calls[1], " "); got != "start tidy.timer" {
		t.Errorf("second call = %q, want start tidy.timer", got)
	}
}

func TestSystemdManager_StopError(t *testing.T) {
	m := &SystemdManager{run: func(args ...string) (string, error) {
		return "", errors.New("systemctl stop nginx.service: exit status 5")
	}}
	if err := m.Stop("nginx"); err == nil {
		t.Error("expected error from systemctl")
	}
}

func TestSystemdManager_ListRunning(t *testing.T) {
	out := "nginx.service loaded active running A high performance web server\n" +
		"cron.service loaded active running Regular background program processing daemon\n"
	m := &SystemdManager{run: func(args ...string) (string, error) {
		return out, nil
	}}

	names, err := m.ListRunning()
	if err != nil {
		t.Fatalf("ListRunning: %v", err)
	}
	if got := strings.Join(names, ","); got != "nginx,cron" {
		t.Errorf("ListRunning = %s, want nginx,cron", got)
	}
}

func TestSystemdManager_ListRunningEmpty(t *testing.T) {
	m := &SystemdManager{run: func(args ...string) (string, error) {
		return "\n", nil
	}}
	names, err := m.ListRunning()
	if err != nil {
		t.Fatalf("ListRunning: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("ListRunning = %v, want empty", names)
	}
}
