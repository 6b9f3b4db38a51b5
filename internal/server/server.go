// Package server wires the HTTP and WebSocket surface on top of the store,
// the sync engine and the notification hub.
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/flashikNet/EduParser/internal/database"
	"github.com/flashikNet/EduParser/internal/hub"
	"github.com/flashikNet/EduParser/utils"
)

// Syncer triggers the replace-all synchronization for one brand.
type Syncer interface {
	Sync(ctx context.Context, brand string) (int, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	app    *fiber.App
	repo   *database.Repository
	syncer Syncer
	hub    *hub.Hub
}

// New builds the fiber application with all routes registered.
func New(repo *database.Repository, syncer Syncer, h *hub.Hub) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "EduParser",
			DisableStartupMessage: true,
		}),
		repo:   repo,
		syncer: syncer,
		hub:    h,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Post("/parse/:brand", s.parseBrand)
	s.app.Get("/sneakers/:brand", s.getByBrand)
	s.app.Put("/sneakers/:id", s.updateSneaker)
	s.app.Delete("/sneakers/:id", s.deleteSneaker)
	s.app.Get("/healthz", s.healthz)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(s.subscribe))
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving the API.
func (s *Server) Listen(addr string) error {
	log.Info().Str("addr", addr).Msg("starting API server")
	return s.app.Listen(addr)
}

// Shutdown drains connections and stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// parseBrand scrapes the brand's catalog, replaces its stored records and
// tells every subscriber about the new generation.
func (s *Server) parseBrand(c *fiber.Ctx) error {
	brand := utils.NormalizeBrand(c.Params("brand"))
	if brand == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "brand is required"})
	}

	count, err := s.syncer.Sync(c.UserContext(), brand)
	if err != nil {
		log.Error().Err(err).Str("brand", brand).Msg("sync failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to parse catalog for %q", brand),
		})
	}

	s.hub.Broadcast(fmt.Sprintf("parsed %d sneakers for brand %q", count, brand))
	return c.JSON(fiber.Map{"brand": brand, "count": count})
}

// getByBrand lists a brand's stored sneakers, 404 when there are none.
func (s *Server) getByBrand(c *fiber.Ctx) error {
	brand := utils.NormalizeBrand(c.Params("brand"))
	sneakers, err := s.repo.FindByBrand(c.UserContext(), brand)
	if err != nil {
		return internalError(c, err)
	}
	if len(sneakers) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("brand %q not found", brand),
		})
	}
	return c.JSON(sneakers)
}

type sneakerUpdate struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Brand string `json:"brand"`
}

// updateSneaker rewrites one record by id.
func (s *Server) updateSneaker(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	var body sneakerUpdate
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if body.Name == "" || body.Price == "" || body.Brand == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name, price and brand are required"})
	}

	err = s.repo.UpdateSneaker(c.UserContext(), int64(id), body.Name, body.Price, utils.NormalizeBrand(body.Brand))
	if errors.Is(err, database.ErrNotFound) {
		return sneakerNotFound(c, id)
	}
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"status": "updated", "id": id})
}

// deleteSneaker removes one record by id.
func (s *Server) deleteSneaker(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	err = s.repo.DeleteSneaker(c.UserContext(), int64(id))
	if errors.Is(err, database.ErrNotFound) {
		return sneakerNotFound(c, id)
	}
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"status": "deleted", "id": id})
}

func (s *Server) healthz(c *fiber.Ctx) error {
	if err := s.repo.Ping(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// subscribe pumps hub broadcasts into one WebSocket connection. The client is
// not expected to send anything meaningful; its read loop only exists to
// notice the connection closing.
func (s *Server) subscribe(conn *websocket.Conn) {
	sub := s.hub.Register()
	defer s.hub.Unregister(sub)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-sub.Messages():
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-sub.Done():
			return
		case <-closed:
			return
		}
	}
}

func sneakerNotFound(c *fiber.Ctx, id int) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": fmt.Sprintf("sneaker %d not found", id),
	})
}

func internalError(c *fiber.Ctx, err error) error {
	log.Error().Err(err).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
