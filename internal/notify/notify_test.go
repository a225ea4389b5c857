package notify

import (
	"context"
	"io"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"refocusd/internal/intervene"
	"refocusd/internal/profile"
)

func blockResult() intervene.Result {
	return intervene.Result{
		Strategy: profile.StrategyHardBlock,
		Action:   intervene.ActionBlock,
		Message:  "Stop. Back to the refactor.",
	}
}

func TestTerminalParsesResponses(t *testing.T) {
	tests := []struct {
		input string
		want  profile.Response
	}{
		{"y\n", profile.ResponseComplied},
		{"done\n", profile.ResponseComplied},
		{"o\n", profile.ResponseOverrode},
		{"no\n", profile.ResponseOverrode},
		{"\n", profile.ResponseIgnored},
		{"whatever\n", profile.ResponseIgnored},
	}

	for _, tt := range tests {
		term := NewTerminal(strings.NewReader(tt.input), io.Discard, time.Second)
		out, err := term.Deliver(context.Background(), blockResult())
		if err != nil {
			t.Fatalf("input %q: %v", tt.input, err)
		}
		if out.Response != tt.want {
			t.Errorf("input %q: response %q, want %q", tt.input, out.Response, tt.want)
		}
	}
}

func TestTerminalTimeoutResolvesToIgnored(t *testing.T) {
	// A reader that never produces a line.
	pr, _ := io.Pipe()
	term := NewTerminal(pr, io.Discard, 20*time.Millisecond)

	out, err := term.Deliver(context.Background(), blockResult())
	if err != nil {
		t.Fatal(err)
	}
	if out.Response != profile.ResponseIgnored {
		t.Errorf("response %q, want ignored", out.Response)
	}
}

func TestTerminalAnswerAfterTimeoutLandsOnNextPrompt(t *testing.T) {
	pr, pw := io.Pipe()
	term := NewTerminal(pr, io.Discard, 30*time.Millisecond)

	first, err := term.Deliver(context.Background(), blockResult())
	if err != nil {
		t.Fatal(err)
	}
	if first.Response != profile.ResponseIgnored {
		t.Fatalf("unanswered prompt resolved %q, want ignored", first.Response)
	}

	go io.WriteString(pw, "y\n")

	second, err := term.Deliver(context.Background(), blockResult())
	if err != nil {
		t.Fatal(err)
	}
	if second.Response != profile.ResponseComplied {
		t.Errorf("answered prompt resolved %q, want complied", second.Response)
	}
}

func TestTerminalRendersExtras(t *testing.T) {
	var sb strings.Builder
	term := NewTerminal(strings.NewReader("y\n"), &sb, time.Second)
	_, err := term.Deliver(context.Background(), intervene.Result{
		Strategy:   profile.StrategyMicroTask,
		Action:     intervene.ActionSuggest,
		Message:    "Smallest next step:",
		MicroTasks: []string{"close the tabs", "open the editor", "set a timer"},
		TimeLimit:  5 * time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	rendered := sb.String()
	for _, want := range []string{"close the tabs", "2.", "timer: 5m0s"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("rendered prompt missing %q:\n%s", want, rendered)
		}
	}
}

// fakeAgent is the server-side counterpart of the desktop agent.
type fakeAgent struct {
	response string
	refocus  int
}

func (f *fakeAgent) ShowIntervention(req ShowRequest, resp *ShowResponse) error {
	resp.Response = f.response
	resp.RefocusSeconds = f.refocus
	return nil
}

func serveAgent(t *testing.T, agent *fakeAgent) string {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "agent.sock")
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	srv := rpc.NewServer()
	if err := srv.RegisterName("Agent", agent); err != nil {
		t.Fatal(err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.ServeCodec(jsonrpc.NewServerCodec(conn))
		}
	}()
	return socket
}

func TestAgentRoundTrip(t *testing.T) {
	socket := serveAgent(t, &fakeAgent{response: "complied", refocus: 12})
	client := NewAgent(socket, time.Second)

	out, err := client.Deliver(context.Background(), blockResult())
	if err != nil {
		t.Fatal(err)
	}
	if out.Response != profile.ResponseComplied {
		t.Errorf("response %q, want complied", out.Response)
	}
	if out.TimeToRefocus != 12*time.Second {
		t.Errorf("refocus %v, want 12s", out.TimeToRefocus)
	}
}

func TestAgentUnknownResponseReadsAsIgnored(t *testing.T) {
	socket := serveAgent(t, &fakeAgent{response: "snoozed"})
	client := NewAgent(socket, time.Second)

	out, err := client.Deliver(context.Background(), blockResult())
	if err != nil {
		t.Fatal(err)
	}
	if out.Response != profile.ResponseIgnored {
		t.Errorf("response %q, want ignored", out.Response)
	}
}

func TestAgentUnreachableResolvesToIgnored(t *testing.T) {
	client := NewAgent(filepath.Join(t.TempDir(), "missing.sock"), 50*time.Millisecond)
	out, err := client.Deliver(context.Background(), blockResult())
	if err != nil {
		t.Fatalf("agent failure must not surface an error, got %v", err)
	}
	if out.Response != profile.ResponseIgnored {
		t.Errorf("response %q, want ignored", out.Response)
	}
}

func TestScriptedDrainsToIgnored(t *testing.T) {
	s := NewScripted(intervene.Outcome{Response: profile.ResponseComplied, TimeToRefocus: 3 * time.Second})

	first, _ := s.Deliver(context.Background(), blockResult())
	if first.Response != profile.ResponseComplied {
		t.Errorf("first response %q", first.Response)
	}
	second, _ := s.Deliver(context.Background(), blockResult())
	if second.Response != profile.ResponseIgnored {
		t.Errorf("drained response %q, want ignored", second.Response)
	}
	if len(s.Delivered) != 2 {
		t.Errorf("recorded %d deliveries, want 2", len(s.Delivered))
	}
}
