package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"moneypot-backend/internal/models"
	"moneypot-backend/internal/services"

	"golang.org/x/net/websocket"
)

type fakeDirectory struct {
	users  map[string]models.User
	groups map[string]models.Group
}

func (d *fakeDirectory) FindUserByName(_ context.Context, name string) (models.User, error) {
	if u, ok := d.users[strings.ToLower(name)]; ok {
		return u, nil
	}
	return models.User{}, fmt.Errorf("user %s: %w", name, services.ErrNotFound)
}

func (d *fakeDirectory) FindGroupByName(_ context.Context, name string) (models.Group, error) {
	if g, ok := d.groups[strings.ToLower(name)]; ok {
		return g, nil
	}
	return models.Group{}, fmt.Errorf("group %s: %w", name, services.ErrNotFound)
}

type fakeLedger struct {
	mu     sync.Mutex
	totals map[string]int64
	err    error
}

func (l *fakeLedger) Contribute(_ context.Context, _, groupID string, amount int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	l.totals[groupID] += amount
	return l.totals[groupID], nil
}

func (l *fakeLedger) setErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *fakeLedger) total(groupID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals[groupID]
}

func newTestGateway(ledger Ledger) *Gateway {
	dir := &fakeDirectory{
		users: map[string]models.User{
			"ayse":   {ID: "u1", Username: "ayse"},
			"mehmet": {ID: "u2", Username: "mehmet"},
		},
		groups: map[string]models.Group{
			"vacation": {ID: "g1", Name: "Vacation", TargetAmount: 1000, CurrentAmount: 200},
		},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(dir, ledger, log)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) reply {
	t.Helper()
	if err := websocket.JSON.Send(conn, v); err != nil {
		t.Fatalf("send: %v", err)
	}
	var rep reply
	if err := websocket.JSON.Receive(conn, &rep); err != nil {
		t.Fatalf("receive: %v", err)
	}
	return rep
}

func TestGateway_JoinThenContribute(t *testing.T) {
	ledger := &fakeLedger{totals: map[string]int64{"g1": 200}}
	srv := httptest.NewServer(newTestGateway(ledger).Handler())
	defer srv.Close()

	conn := dial(t, srv)

	rep := send(t, conn, map[string]any{"event": "join", "username": "ayse", "group_name": "Vacation"})
	if rep.Status != "ok" || rep.Message != "joined" {
		t.Fatalf("join reply = %+v", rep)
	}

	rep = send(t, conn, map[string]any{"event": "contribute", "amount": 50})
	if rep.Status != "ok" || rep.NewTotal == nil || *rep.NewTotal != 250 {
		t.Fatalf("contribute reply = %+v", rep)
	}
}

func TestGateway_JoinIsCaseInsensitiveAndRepeatable(t *testing.T) {
	ledger := &fakeLedger{totals: map[string]int64{"g1": 0}}
	srv := httptest.NewServer(newTestGateway(ledger).Handler())
	defer srv.Close()

	conn := dial(t, srv)

	for _, name := range []string{"AYSE", "ayse"} {
		rep := send(t, conn, map[string]any{"event": "join", "username": name, "group_name": "VACATION"})
		if rep.Status != "ok" {
			t.Fatalf("join as %q reply = %+v", name, rep)
		}
	}
}

func TestGateway_ContributeBeforeJoin(t *testing.T) {
	ledger := &fakeLedger{totals: map[string]int64{}}
	srv := httptest.NewServer(newTestGateway(ledger).Handler())
	defer srv.Close()

	conn := dial(t, srv)

	rep := send(t, conn, map[string]any{"event": "contribute", "amount": 50})
	if rep.Status != "error" || rep.Message != "must join a group first" {
		t.Fatalf("reply = %+v", rep)
	}
	if ledger.total("g1") != 0 {
		t.Fatalf("ledger was touched before join")
	}

	// the session stayed unjoined, so a second attempt fails the same way
	rep = send(t, conn, map[string]any{"event": "contribute", "amount": 50})
	if rep.Status != "error" {
		t.Fatalf("second reply = %+v", rep)
	}
}

func TestGateway_JoinUnknownGroup(t *testing.T) {
	ledger := &fakeLedger{totals: map[string]int64{}}
	srv := httptest.NewServer(newTestGateway(ledger).Handler())
	defer srv.Close()

	conn := dial(t, srv)

	rep := send(t, conn, map[string]any{"event": "join", "username": "ayse", "group_name": "Beach"})
	if rep.Status != "error" || rep.Message != "Group Beach not found!" {
		t.Fatalf("reply = %+v", rep)
	}

	// lookup failure must not advance the session
	rep = send(t, conn, map[string]any{"event": "contribute", "amount": 10})
	if rep.Status != "error" || rep.Message != "must join a group first" {
		t.Fatalf("contribute after failed join reply = %+v", rep)
	}
}

func TestGateway_JoinUnknownUser(t *testing.T) {
	ledger := &fakeLedger{totals: map[string]int64{}}
	srv := httptest.NewServer(newTestGateway(ledger).Handler())
	defer srv.Close()

	conn := dial(t, srv)

	rep := send(t, conn, map[string]any{"event": "join", "username": "nobody", "group_name": "Vacation"})
	if rep.Status != "error" || rep.Message != "User nobody not found!" {
		t.Fatalf("reply = %+v", rep)
	}
}

func TestGateway_MalformedEvents(t *testing.T) {
	ledger := &fakeLedger{totals: map[string]int64{}}
	srv := httptest.NewServer(newTestGateway(ledger).Handler())
	defer srv.Close()

	conn := dial(t, srv)

	rep := send(t, conn, map[string]any{"event": "dance"})
	if rep.Status != "error" || rep.Message != "unknown or malformed event" {
		t.Fatalf("unknown event reply = %+v", rep)
	}

	// join with missing fields
	rep = send(t, conn, map[string]any{"event": "join", "username": "ayse"})
	if rep.Status != "error" || rep.Message != "unknown or malformed event" {
		t.Fatalf("partial join reply = %+v", rep)
	}

	// a malformed frame gets an error reply, and the connection survives
	if err := websocket.Message.Send(conn, "this is not json"); err != nil {
		t.Fatalf("send raw: %v", err)
	}
	var raw reply
	if err := websocket.JSON.Receive(conn, &raw); err != nil {
		t.Fatalf("receive after raw frame: %v", err)
	}
	if raw.Status != "error" {
		t.Fatalf("raw frame reply = %+v", raw)
	}

	rep = send(t, conn, map[string]any{"event": "join", "username": "ayse", "group_name": "Vacation"})
	if rep.Status != "ok" {
		t.Fatalf("join after malformed frame reply = %+v", rep)
	}
}

func TestGateway_RepeatedMalformedFramesCloseConnection(t *testing.T) {
	ledger := &fakeLedger{totals: map[string]int64{}}
	srv := httptest.NewServer(newTestGateway(ledger).Handler())
	defer srv.Close()

	conn := dial(t, srv)

	for i := 0; i < maxDecodeErrorsPerConn; i++ {
		if err := websocket.Message.Send(conn, "junk"); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		var rep reply
		if err := websocket.JSON.Receive(conn, &rep); err != nil {
			t.Fatalf("receive %d: %v", i, err)
		}
		if rep.Status != "error" || rep.Message != "unknown or malformed event" {
			t.Fatalf("reply %d = %+v", i, rep)
		}
	}

	// the budget is spent; the server hangs up
	var rep reply
	if err := websocket.JSON.Receive(conn, &rep); err == nil {
		t.Fatalf("connection should be closed after %d malformed frames, got %+v", maxDecodeErrorsPerConn, rep)
	}
}

func TestGateway_NegativeAmount(t *testing.T) {
	ledger := &fakeLedger{totals: map[string]int64{"g1": 100}}
	srv := httptest.NewServer(newTestGateway(ledger).Handler())
	defer srv.Close()

	conn := dial(t, srv)
	send(t, conn, map[string]any{"event": "join", "username": "ayse", "group_name": "Vacation"})

	rep := send(t, conn, map[string]any{"event": "contribute", "amount": -5})
	if rep.Status != "error" || rep.Message != "amount must be a positive number" {
		t.Fatalf("reply = %+v", rep)
	}
	if ledger.total("g1") != 100 {
		t.Fatalf("negative amount reached the ledger")
	}
}

func TestGateway_StoreFaultLeavesSessionJoined(t *testing.T) {
	ledger := &fakeLedger{totals: map[string]int64{"g1": 0}}
	srv := httptest.NewServer(newTestGateway(ledger).Handler())
	defer srv.Close()

	conn := dial(t, srv)
	send(t, conn, map[string]any{"event": "join", "username": "ayse", "group_name": "Vacation"})

	ledger.setErr(fmt.Errorf("%w: down", services.ErrStoreFault))
	rep := send(t, conn, map[string]any{"event": "contribute", "amount": 10})
	if rep.Status != "error" {
		t.Fatalf("reply during fault = %+v", rep)
	}

	// session survives the fault; once the store recovers, contribute works
	ledger.setErr(nil)
	rep = send(t, conn, map[string]any{"event": "contribute", "amount": 10})
	if rep.Status != "ok" || rep.NewTotal == nil || *rep.NewTotal != 10 {
		t.Fatalf("reply after recovery = %+v", rep)
	}
}

func TestGateway_AdmissionRejectedReply(t *testing.T) {
	ledger := &fakeLedger{totals: map[string]int64{"g1": 0}}
	srv := httptest.NewServer(newTestGateway(ledger).Handler())
	defer srv.Close()

	conn := dial(t, srv)
	send(t, conn, map[string]any{"event": "join", "username": "ayse", "group_name": "Vacation"})

	ledger.setErr(services.ErrAdmissionRejected)
	rep := send(t, conn, map[string]any{"event": "contribute", "amount": 10})
	if rep.Status != "error" || rep.Message != "server busy, try again later" {
		t.Fatalf("reply = %+v", rep)
	}
}

func TestGateway_ConcurrentContributionsNoLostUpdate(t *testing.T) {
	const perConn = 25

	ledger := &fakeLedger{totals: map[string]int64{"g1": 200}}
	gw := newTestGateway(ledger)
	srv := httptest.NewServer(gw.Handler())
	defer srv.Close()

	var wg sync.WaitGroup
	for _, username := range []string{"ayse", "mehmet"} {
		conn := dial(t, srv)
		rep := send(t, conn, map[string]any{"event": "join", "username": username, "group_name": "Vacation"})
		if rep.Status != "ok" {
			t.Fatalf("join as %s reply = %+v", username, rep)
		}

		wg.Add(1)
		go func(conn *websocket.Conn) {
			defer wg.Done()
			for i := 0; i < perConn; i++ {
				if err := websocket.JSON.Send(conn, map[string]any{"event": "contribute", "amount": 2}); err != nil {
					t.Errorf("send: %v", err)
					return
				}
				var rep reply
				if err := websocket.JSON.Receive(conn, &rep); err != nil {
					t.Errorf("receive: %v", err)
					return
				}
				if rep.Status != "ok" {
					t.Errorf("contribute reply = %+v", rep)
					return
				}
			}
		}(conn)
	}
	wg.Wait()

	want := int64(200 + 2*perConn*2)
	if got := ledger.total("g1"); got != want {
		t.Fatalf("final total = %d, want %d", got, want)
	}
}

func TestGateway_SessionCountTracksConnections(t *testing.T) {
	ledger := &fakeLedger{totals: map[string]int64{}}
	gw := newTestGateway(ledger)
	srv := httptest.NewServer(gw.Handler())
	defer srv.Close()

	if n := gw.SessionCount(); n != 0 {
		t.Fatalf("initial session count = %d", n)
	}

	conn := dial(t, srv)
	// round-trip once so the server side has registered the session
	send(t, conn, map[string]any{"event": "noop"})
	if n := gw.SessionCount(); n != 1 {
		t.Fatalf("session count after connect = %d", n)
	}
}
