package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go4it/builder/internal/events"
	"github.com/go4it/builder/internal/middleware"
	"github.com/go4it/builder/internal/models"
	"github.com/go4it/builder/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"
)

const keepAliveInterval = 15 * time.Second

// GenerationHandler serves owner-scoped generation status to the web app's users
type GenerationHandler struct {
	DB     *gorm.DB
	Events events.Bus
}

// GenerationStatus is the polling view of a generation
type GenerationStatus struct {
	ID               string                `json:"id"`
	Status           string                `json:"status"`
	Error            *string               `json:"error"`
	Title            *string               `json:"title"`
	Description      *string               `json:"description"`
	AppID            *string               `json:"appId"`
	PreviewURL       *string               `json:"previewUrl"`
	PreviewExpiresAt *time.Time            `json:"previewExpiresAt"`
	IterationCount   int                   `json:"iterationCount"`
	Iterations       []models.AppIteration `json:"iterations"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

func newGenerationStatus(gen *models.GeneratedApp) GenerationStatus {
	iterations := gen.Iterations
	if iterations == nil {
		iterations = []models.AppIteration{}
	}
	return GenerationStatus{
		ID:               gen.ID,
		Status:           gen.Status,
		Error:            gen.Error,
		Title:            gen.Title,
		Description:      gen.Description,
		AppID:            gen.AppID,
		PreviewURL:       gen.PreviewFlyURL,
		PreviewExpiresAt: gen.PreviewExpiresAt,
		IterationCount:   gen.IterationCount,
		Iterations:       iterations,
		UpdatedAt:        gen.UpdatedAt,
	}
}

// GetGeneration handles GET /api/generations/:id
// @Summary Generation status
// @Description Current status of a generation and its iterations. Only the creator can see it.
// @Tags Generations
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} GenerationStatus
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /api/generations/{id} [get]
func (h *GenerationHandler) GetGeneration(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fiber.ErrForbidden
	}

	gen, err := services.GetGeneratedAppForOwner(c.UserContext(), h.DB, c.Params("id"), user.ID)
	if err != nil {
		return respondError(c, err, "generation")
	}

	return c.JSON(newGenerationStatus(gen))
}

// StreamEvents handles GET /api/generations/:id/events
// @Summary Live generation events
// @Description Server-Sent Events stream of status changes, ending once the generation or iteration finishes
// @Tags Generations
// @Produce text/event-stream
// @Param id path string true "Generation ID"
// @Success 200 {object} events.Event
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /api/generations/{id}/events [get]
func (h *GenerationHandler) StreamEvents(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fiber.ErrForbidden
	}

	id := c.Params("id")

	// Subscribe before reading the snapshot so an event published in between is still delivered
	ctx, cancel := context.WithCancel(context.Background())
	sub, unsubscribe := h.Events.Subscribe(ctx, id)

	gen, err := services.GetGeneratedAppForOwner(c.UserContext(), h.DB, id, user.ID)
	if err != nil {
		unsubscribe()
		cancel()
		return respondError(c, err, "generation")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	initial := events.Event{
		Type:         events.TypeStatus,
		GenerationID: gen.ID,
		Status:       gen.Status,
		Time:         gen.UpdatedAt,
	}
	if gen.Error != nil {
		initial.Message = *gen.Error
	}

	settled := streamSettled(gen)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer unsubscribe()

		if err := writeEvent(w, initial); err != nil {
			return
		}
		if settled {
			return
		}

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					return
				}
				if ev.Type == events.TypeCompleted || ev.Type == events.TypeFailed {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					log.Printf("Event stream for %s closed: %v", gen.ID, err)
					return
				}
			}
		}
	}))

	return nil
}

// streamSettled reports whether no further events can arrive for gen without a new request
func streamSettled(gen *models.GeneratedApp) bool {
	switch gen.Status {
	case models.GenerationFailed:
		return true
	case models.GenerationRunning:
		for _, it := range gen.Iterations {
			if it.Status == models.IterationIterating {
				return false
			}
		}
		return true
	}
	return false
}

func writeEvent(w *bufio.Writer, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return w.Flush()
}
