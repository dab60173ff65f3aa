package gateway

import "moneypot-backend/internal/models"

type sessionState int

const (
	stateUnjoined sessionState = iota
	stateJoined
	stateClosed
)

// Session is one connection's state machine. It is owned by that connection's
// goroutine for its whole life, so no locking: events from one connection are
// processed strictly in arrival order.
type Session struct {
	state     sessionState
	userID    string
	username  string
	groupID   string
	groupName string
}

func newSession() *Session { return &Session{state: stateUnjoined} }

func (s *Session) joined() bool { return s.state == stateJoined }

// bind moves the session to joined. Re-binding while already joined is the
// reconnect/re-identify case and simply overwrites the prior identity.
func (s *Session) bind(u models.User, g models.Group) {
	if s.state == stateClosed {
		return
	}
	s.state = stateJoined
	s.userID = u.ID
	s.username = u.Username
	s.groupID = g.ID
	s.groupName = g.Name
}

func (s *Session) close() { s.state = stateClosed }
