package gateway

import (
	"testing"

	"moneypot-backend/internal/models"
)

func TestSession_StartsUnjoined(t *testing.T) {
	s := newSession()
	if s.joined() {
		t.Fatalf("new session should not be joined")
	}
}

func TestSession_BindAndRebind(t *testing.T) {
	s := newSession()
	s.bind(models.User{ID: "u1", Username: "ayse"}, models.Group{ID: "g1", Name: "Vacation"})
	if !s.joined() {
		t.Fatalf("session should be joined after bind")
	}
	if s.userID != "u1" || s.groupID != "g1" {
		t.Fatalf("bound identity = (%s,%s), want (u1,g1)", s.userID, s.groupID)
	}

	// re-join rebinds; it is not an error
	s.bind(models.User{ID: "u2", Username: "mehmet"}, models.Group{ID: "g2", Name: "Car"})
	if s.userID != "u2" || s.groupID != "g2" {
		t.Fatalf("rebind identity = (%s,%s), want (u2,g2)", s.userID, s.groupID)
	}
}

func TestSession_ClosedIsTerminal(t *testing.T) {
	s := newSession()
	s.close()
	s.bind(models.User{ID: "u1"}, models.Group{ID: "g1"})
	if s.joined() {
		t.Fatalf("bind after close should not transition the session")
	}
}
