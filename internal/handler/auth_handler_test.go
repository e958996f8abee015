package handler

import (
	"context"
	"pajak-web/internal/models"
	"pajak-web/internal/service"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type fakeAuth struct {
	users map[int]*models.User
}

func (f *fakeAuth) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Username != "admin" || req.Password != "secret123" {
		return nil, service.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (f *fakeAuth) Register(_ context.Context, req models.RegisterRequest) (*models.User, error) {
	if req.Username == "admin" {
		return nil, service.ErrUsernameTaken
	}
	return &models.User{ID: 2, Username: req.Username}, nil
}

func (f *fakeAuth) GetUserByID(_ context.Context, id int) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func TestAuthHandler(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{users: map[int]*models.User{1: {ID: 1, Username: "admin"}}})
	app := fiber.New()
	app.Post("/auth/login", h.Login)
	app.Post("/auth/register", h.Register)
	app.Get("/auth/me", func(c *fiber.Ctx) error {
		c.Locals("user_id", 1)
		return c.Next()
	}, h.Me)
	app.Get("/auth/anonymous", h.Me)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"login missing password", "POST", "/auth/login", `{"username":"admin"}`, fiber.StatusBadRequest},
		{"login wrong password", "POST", "/auth/login", `{"username":"admin","password":"nope"}`, fiber.StatusUnauthorized},
		{"login ok", "POST", "/auth/login", `{"username":"admin","password":"secret123"}`, fiber.StatusOK},
		{"register taken", "POST", "/auth/register", `{"username":"admin","password":"secret123"}`, fiber.StatusConflict},
		{"register ok", "POST", "/auth/register", `{"username":"budi","password":"secret123"}`, fiber.StatusCreated},
		{"me", "GET", "/auth/me", "", fiber.StatusOK},
		{"me without session", "GET", "/auth/anonymous", "", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := doJSON(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, status)
		})
	}
}
