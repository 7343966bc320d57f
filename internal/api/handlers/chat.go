package handlers

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/argus/argus-backend/internal/engine"
)

// generationTimeout bounds a single chat turn end to end, tarpit and
// streaming included.
const generationTimeout = 5 * time.Minute

// ChatHandler exposes the conversation pipeline over HTTP. It is a thin
// layer: client identity is the peer IP and every pipeline outcome arrives
// as plain text fragments.
type ChatHandler struct {
	Engine     *engine.Engine
	Log        *logrus.Logger
	UploadsDir string
}

// Chat streams a reply to one user message. Fragments are flushed as they
// arrive; a failed flush means the client disconnected, which cancels the
// in-flight generation.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	message := c.FormValue("message")
	if message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "message is required")
	}

	query := message
	if filePath := c.FormValue("file_path"); filePath != "" {
		query = fmt.Sprintf("Using this data: %s. Question: %s", filePath, message)
	}

	// Generation gets a hard deadline; the backend call itself carries no
	// timeout, so an unresponsive stream must not pin the handler forever.
	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	fragments := h.Engine.HandleMessage(ctx, c.IP(), query)

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for frag := range fragments {
			if _, err := w.WriteString(frag); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))

	return nil
}

// Reset reinitializes the caller's conversation
func (h *ChatHandler) Reset(c *fiber.Ctx) error {
	h.Engine.Reset(c.IP())
	return c.JSON(fiber.Map{"status": "reset"})
}

// Upload stores a file into the uploads directory for later analysis
func (h *ChatHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}

	// Base name only, so an upload can't escape the uploads directory.
	name := filepath.Base(file.Filename)
	if name == "." || name == string(filepath.Separator) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file name")
	}

	dest := filepath.Join(h.UploadsDir, name)
	if err := c.SaveFile(file, dest); err != nil {
		h.Log.WithError(err).Error("upload save failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not save file")
	}

	return c.JSON(fiber.Map{"filename": name, "path": dest})
}

// Health reports liveness
func (h *ChatHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
