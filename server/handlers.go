package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/tropica/briefbuddy/agent"
	"github.com/tropica/briefbuddy/finalize"
	"github.com/valyala/fasthttp"
)

type turnRequest struct {
	Message string `json:"message"`
}

type finalizeRequest struct {
	Category string `json:"category"`
	Client   string `json:"client"`
}

func (s *Server) session(c *fiber.Ctx) (*agent.Session, error) {
	return s.sessions.Get(c.UserContext(), c.Params("id"))
}

func (s *Server) createSession(c *fiber.Ctx) error {
	session, err := s.sessions.Create(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(session.Snapshot(s.flow.Table()))
}

func (s *Server) showSession(c *fiber.Ctx) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(session.Snapshot(s.flow.Table()))
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	if err := s.sessions.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) reset(c *fiber.Ctx) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}
	if err := s.flow.Reset(session); err != nil {
		return err
	}
	return c.JSON(session.Snapshot(s.flow.Table()))
}

// turn streams one reply as server-sent events. Deltas go out as bare data
// lines; every other event carries its kind as the SSE event name.
func (s *Server) turn(c *fiber.Ctx) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}
	var req turnRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid turn body")
		}
	}

	// The request context is recycled once the handler returns, before the body is streamed.
	ctx, cancel := context.WithCancel(context.Background())
	events, err := s.flow.Reply(ctx, session, req.Message)
	if err != nil {
		cancel()
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer events.Close()
		for {
			ev, err := events.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				ev = &agent.Event{Kind: agent.EventError, Text: agent.GenerationFailedNotice, Error: err.Error()}
			}
			if werr := writeEvent(w, ev); werr != nil {
				slog.Debug("Client went away", "session", session.ID, "error", werr)
				return
			}
			if err != nil {
				return
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, ev *agent.Event) error {
	var payload string
	var err error
	if ev.Kind == agent.EventDelta {
		payload, err = sonic.MarshalString(fiber.Map{"text": ev.Text})
	} else {
		payload, err = sonic.MarshalString(ev)
	}
	if err != nil {
		return err
	}
	if ev.Kind != agent.EventDelta {
		if _, err := fmt.Fprintf(w, "event: %s\n", ev.Kind); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func (s *Server) attach(c *fiber.Ctx) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file field")
	}
	data, err := readFormFile(header)
	if err != nil {
		return err
	}
	res, err := s.flow.Seed(c.UserContext(), session, finalize.Attachment{
		Filename: header.Filename,
		MimeType: header.Header.Get(fiber.HeaderContentType),
		Data:     data,
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, nil
}

func (s *Server) finalize(c *fiber.Ctx) error {
	session, err := s.session(c)
	if err != nil {
		return err
	}
	var req finalizeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid finalize body")
		}
	}
	res, err := s.flow.Finalize(c.UserContext(), session, agent.FinalizeOptions{
		Category: req.Category,
		Client:   req.Client,
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}
