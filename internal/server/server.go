package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shoplane-labs/push-dispatch/internal/config"
	"github.com/shoplane-labs/push-dispatch/internal/gateway"
	"github.com/shoplane-labs/push-dispatch/internal/model"
	"github.com/shoplane-labs/push-dispatch/internal/service"
)

// Server wires HTTP handlers.
type Server struct {
	app      *fiber.App
	notifSvc *service.NotificationService
	userSvc  *service.UserService
	subsSvc  *service.SubscriptionService
	cfg      *config.Config
}

// New builds a server instance.
func New(cfg *config.Config, notifSvc *service.NotificationService, userSvc *service.UserService, subsSvc *service.SubscriptionService) *Server {
	app := fiber.New(fiber.Config{
		IdleTimeout:  cfg.HTTP.ReadTimeout,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		AppName:      "push-dispatch",
	})
	s := &Server{
		app:      app,
		notifSvc: notifSvc,
		userSvc:  userSvc,
		subsSvc:  subsSvc,
		cfg:      cfg,
	}
	s.registerRoutes()
	return s
}

// Start listens and serves HTTP traffic.
func (s *Server) Start() error {
	return s.app.Listen(s.cfg.HTTP.Addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", s.handleHealth)

	notification := s.app.Group("/notification")
	notification.Post("/send-notification", s.handleSend)
	notification.Get("/track-notification/:id", s.handleTrack)
	notification.Get("/all-notification", s.handleList)
	notification.Delete("/delete-notification/:id", s.requireAuth, s.handleDelete)

	users := s.app.Group("/users")
	users.Post("/register", s.handleRegister)
	users.Post("/login", s.handleLogin)
	users.Get("/subscribed-users", s.handleSubscribedUsers)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleSend(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ImageURL    string `json:"imageUrl"`
		Audience    string `json:"audience"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.Fail("invalid request body"))
	}
	// The send is not aborted on client disconnect: a record is written
	// if and only if the gateway acknowledged acceptance.
	result, err := s.notifSvc.Dispatch(context.Background(), service.DispatchRequest{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Audience:    service.Audience(req.Audience),
	})
	if err != nil {
		return s.renderError(c, err)
	}
	data := fiber.Map{
		"notificationId": result.NotificationID,
		"recorded":       result.Recorded,
	}
	if !result.Recorded {
		return c.JSON(model.OK("Notification sent but history not recorded", data))
	}
	return c.JSON(model.OK("Notification sent successfully", data))
}

func (s *Server) handleTrack(c *fiber.Ctx) error {
	stats, err := s.notifSvc.Track(context.Background(), c.Params("id"))
	if err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(model.OK("success", stats))
}

func (s *Server) handleList(c *fiber.Ctx) error {
	notifications, err := s.notifSvc.List(context.Background())
	if err != nil {
		return s.renderError(c, err)
	}
	if notifications == nil {
		notifications = []*model.Notification{}
	}
	return c.JSON(model.OK("Notifications retrieved successfully.", notifications))
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(model.Fail("Notification not found."))
	}
	removed, err := s.notifSvc.Remove(context.Background(), id)
	if err != nil {
		return s.renderError(c, err)
	}
	if !removed {
		return c.Status(http.StatusNotFound).JSON(model.Fail("Notification not found."))
	}
	return c.JSON(model.OK("Notification deleted successfully.", nil))
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.Fail("invalid request body"))
	}
	if err := s.userSvc.Register(context.Background(), req.Name, req.Password); err != nil {
		return s.renderError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(model.OK("User registered successfully!", nil))
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
		PlayerID string `json:"playerId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.Fail("invalid request body"))
	}
	result, err := s.userSvc.Login(context.Background(), req.Name, req.Password, req.PlayerID)
	if err != nil {
		return s.renderError(c, err)
	}
	data := fiber.Map{"user": result.User}
	if result.Token != "" {
		data["token"] = result.Token
	}
	return c.JSON(model.OK("Login successful.", data))
}

func (s *Server) handleSubscribedUsers(c *fiber.Ctx) error {
	views, err := s.subsSvc.ListSubscribed(context.Background())
	if err != nil {
		return s.renderError(c, err)
	}
	if len(views) == 0 {
		return c.Status(http.StatusNotFound).JSON(model.Fail("No users have subscribed to notifications."))
	}
	return c.JSON(model.OK("Subscribed users retrieved.", views))
}

// renderError maps the service error taxonomy onto HTTP statuses; every
// failure is rendered as a {success:false, message} envelope.
func (s *Server) renderError(c *fiber.Ctx, err error) error {
	var vErr service.ValidationError
	switch {
	case errors.As(err, &vErr), errors.Is(err, service.ErrNoSubscribers):
		return c.Status(http.StatusBadRequest).JSON(model.Fail(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(http.StatusUnauthorized).JSON(model.Fail(err.Error()))
	case errors.Is(err, gateway.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(model.Fail(err.Error()))
	case errors.Is(err, gateway.ErrRejected), errors.Is(err, gateway.ErrUnreachable):
		return c.Status(http.StatusBadGateway).JSON(model.Fail(err.Error()))
	default:
		return c.Status(http.StatusInternalServerError).JSON(model.Fail(err.Error()))
	}
}

func (s *Server) requireAuth(c *fiber.Ctx) error {
	if s.userSvc == nil || !s.userSvc.AuthEnabled() {
		return c.Next()
	}
	token := extractBearerToken(c.Get("Authorization"))
	if token == "" {
		return c.Status(http.StatusUnauthorized).JSON(model.Fail("not logged in"))
	}
	claims, err := s.userSvc.ValidateToken(token)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(model.Fail("session expired"))
	}
	c.Locals("username", claims.Username)
	return c.Next()
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
