package notify

// #region imports
import (
	"context"
	"fmt"
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"refocusd/internal/intervene"
	"refocusd/internal/profile"
)

// #endregion

// #region wire-types

// ShowRequest is the JSON-RPC payload sent to the desktop agent.
type ShowRequest struct {
	Strategy         string
	Action           string
	Message          string
	FollowUp         string
	MicroTasks       []string
	TimeLimitSeconds int
}

// ShowResponse is the agent's answer.
type ShowResponse struct {
	Response       string
	RefocusSeconds int
}

// #endregion

// #region agent

// Agent talks to the desktop notification agent over a unix socket,
// JSON-RPC per call. The agent owns the actual OS notification surface;
// any failure on this boundary resolves to ignored.
type Agent struct {
	socket  string
	timeout time.Duration
}

// NewAgent returns a client for the agent listening on socket.
func NewAgent(socket string, timeout time.Duration) *Agent {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Agent{socket: socket, timeout: timeout}
}

// Deliver implements intervene.Notifier.
func (a *Agent) Deliver(ctx context.Context, res intervene.Result) (intervene.Outcome, error) {
	out, err := a.call(ctx, res)
	if err != nil {
		// Fail to ignored; the engine logs and moves on.
		log.Printf("[NOTIFY] agent delivery failed: %v", err)
		return intervene.Outcome{Response: profile.ResponseIgnored}, nil
	}
	return out, nil
}

func (a *Agent) call(ctx context.Context, res intervene.Result) (intervene.Outcome, error) {
	deadline := time.Now().Add(a.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, err := net.DialTimeout("unix", a.socket, a.timeout)
	if err != nil {
		return intervene.Outcome{}, fmt.Errorf("dial agent: %w", err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(deadline); err != nil {
		return intervene.Outcome{}, fmt.Errorf("set deadline: %w", err)
	}

	client := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	defer client.Close()

	req := ShowRequest{
		Strategy:         string(res.Strategy),
		Action:           string(res.Action),
		Message:          res.Message,
		FollowUp:         res.FollowUp,
		MicroTasks:       res.MicroTasks,
		TimeLimitSeconds: int(res.TimeLimit.Seconds()),
	}
	var resp ShowResponse
	if err := client.Call("Agent.ShowIntervention", req, &resp); err != nil {
		return intervene.Outcome{}, fmt.Errorf("show intervention: %w", err)
	}

	return intervene.Outcome{
		Response:      normalizeResponse(resp.Response),
		TimeToRefocus: time.Duration(resp.RefocusSeconds) * time.Second,
	}, nil
}

// normalizeResponse guards against agents speaking a loose dialect.
func normalizeResponse(s string) profile.Response {
	switch profile.Response(s) {
	case profile.ResponseComplied, profile.ResponseOverrode, profile.ResponseIgnored:
		return profile.Response(s)
	default:
		return profile.ResponseIgnored
	}
}

// #endregion
