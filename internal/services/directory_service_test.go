package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"moneypot-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

type memUsers struct {
	byName map[string]models.User
}

func (m *memUsers) Create(_ context.Context, username, email, hash, role string) (models.User, error) {
	u := models.User{ID: username, Username: username, Email: email, PasswordHash: hash, Role: role}
	m.byName[strings.ToLower(username)] = u
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (models.User, error) {
	for _, u := range m.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, pgx.ErrNoRows
}

func (m *memUsers) FindByName(_ context.Context, name string) (models.User, error) {
	if u, ok := m.byName[strings.ToLower(name)]; ok {
		return u, nil
	}
	return models.User{}, pgx.ErrNoRows
}

func TestDirectory_FindUserByName(t *testing.T) {
	users := &memUsers{byName: map[string]models.User{
		"ayse": {ID: "u1", Username: "ayse"},
	}}
	groups := newMemLedger()
	groups.totals["vacation"] = 0
	svc := NewDirectoryService(users, groups)

	u, err := svc.FindUserByName(context.Background(), "AySe")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u.ID != "u1" {
		t.Fatalf("user = %+v", u)
	}

	_, err = svc.FindUserByName(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	_, err = svc.FindUserByName(context.Background(), "   ")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestDirectory_FindGroupByName(t *testing.T) {
	groups := newMemLedger()
	groups.totals["vacation"] = 200
	svc := NewDirectoryService(&memUsers{byName: map[string]models.User{}}, groups)

	g, err := svc.FindGroupByName(context.Background(), "vacation")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if g.CurrentAmount != 200 {
		t.Fatalf("group = %+v", g)
	}

	_, err = svc.FindGroupByName(context.Background(), "car")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
