package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"moneypot-backend/internal/metrics"
	"moneypot-backend/internal/models"
	"moneypot-backend/internal/services"

	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"
)

// Directory resolves names to stable identities for the join path.
type Directory interface {
	FindUserByName(ctx context.Context, name string) (models.User, error)
	FindGroupByName(ctx context.Context, name string) (models.Group, error)
}

// Ledger commits one contribution (append + atomic increment under one
// admission permit) and returns the group's new total.
type Ledger interface {
	Contribute(ctx context.Context, userID, groupID string, amount int64) (int64, error)
}

const (
	maxFramesPerSecond     = 100
	maxDecodeErrorsPerConn = 5
)

// Gateway accepts connections and runs one goroutine per connection. Replies
// go only to the originating connection; there is no fan-out.
type Gateway struct {
	dir    Directory
	ledger Ledger
	log    *slog.Logger

	// store calls run on this context, not the connection's, so a dropped
	// socket never abandons an in-flight contribution.
	baseCtx context.Context

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

func New(dir Directory, ledger Ledger, log *slog.Logger) *Gateway {
	return &Gateway{
		dir:      dir,
		ledger:   ledger,
		log:      log,
		baseCtx:  context.Background(),
		sessions: make(map[*Session]struct{}),
	}
}

// Handler serves the connection endpoint. Mount it under the same listener as
// the HTTP API; the accept loop lives in net/http and is independent of the
// per-session goroutines.
func (g *Gateway) Handler() http.Handler {
	return websocket.Handler(g.handleConn)
}

// SessionCount reports live sessions, for /status.
func (g *Gateway) SessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

func (g *Gateway) register(s *Session) {
	g.mu.Lock()
	g.sessions[s] = struct{}{}
	g.mu.Unlock()
	metrics.SessionsActive.Inc()
}

func (g *Gateway) unregister(s *Session) {
	g.mu.Lock()
	delete(g.sessions, s)
	g.mu.Unlock()
	metrics.SessionsActive.Dec()
}

func (g *Gateway) handleConn(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	sess := newSession()
	g.register(sess)
	defer func() {
		sess.close()
		g.unregister(sess)
	}()

	enc := json.NewEncoder(conn)
	frameLimit := rate.NewLimiter(rate.Limit(maxFramesPerSecond), maxFramesPerSecond)
	decodeErrors := 0

	for {
		// one frame per message; a bad frame is consumed here and never
		// poisons the next one
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			return
		}
		var ev event
		if err := json.Unmarshal(raw, &ev); err != nil {
			decodeErrors++
			if err := enc.Encode(errorReply(msgMalformed)); err != nil {
				return
			}
			if decodeErrors >= maxDecodeErrorsPerConn {
				g.log.Warn("closing connection after repeated malformed frames", "remote", conn.Request().RemoteAddr)
				return
			}
			continue
		}
		decodeErrors = 0

		if !frameLimit.Allow() {
			if err := enc.Encode(errorReply(msgRateLimited)); err != nil {
				return
			}
			continue
		}

		var out reply
		switch ev.Event {
		case "join":
			out = g.handleJoin(sess, ev)
		case "contribute":
			out = g.handleContribute(sess, ev)
		default:
			out = errorReply(msgMalformed)
		}

		if err := enc.Encode(out); err != nil {
			return
		}
	}
}

// handleJoin resolves both names before any state change; a failed lookup
// leaves the session exactly where it was.
func (g *Gateway) handleJoin(sess *Session, ev event) reply {
	if ev.Username == "" || ev.GroupName == "" {
		return errorReply(msgMalformed)
	}

	u, err := g.dir.FindUserByName(g.baseCtx, ev.Username)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return errorReply(fmt.Sprintf("User %s not found!", ev.Username))
		}
		g.log.Error("user lookup failed", "username", ev.Username, "err", err)
		return errorReply(msgStoreFault)
	}

	grp, err := g.dir.FindGroupByName(g.baseCtx, ev.GroupName)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return errorReply(fmt.Sprintf("Group %s not found!", ev.GroupName))
		}
		g.log.Error("group lookup failed", "group_name", ev.GroupName, "err", err)
		return errorReply(msgStoreFault)
	}

	sess.bind(u, grp)
	g.log.Info("session joined", "username", u.Username, "group", grp.Name)
	return okJoined()
}

func (g *Gateway) handleContribute(sess *Session, ev event) reply {
	if !sess.joined() {
		return errorReply(msgMustJoinFirst)
	}
	if ev.Amount <= 0 {
		return errorReply("amount must be a positive number")
	}

	total, err := g.ledger.Contribute(g.baseCtx, sess.userID, sess.groupID, ev.Amount)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAdmissionRejected):
			return errorReply(msgServerBusy)
		case errors.Is(err, services.ErrValidation):
			return errorReply("amount must be a positive number")
		default:
			g.log.Error("contribute failed", "group", sess.groupName, "err", err)
			return errorReply(msgStoreFault)
		}
	}

	return okTotal(total)
}
