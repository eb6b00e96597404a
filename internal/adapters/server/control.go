package server

import (
	"io"
	"net/http"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/engine/worker"
	"github.com/labstack/echo/v4"
)

// MessageResponse answers a control message.
type MessageResponse struct {
	Handled bool `json:"handled"`
}

// PushResponse answers a push delivery.
type PushResponse struct {
	Notification *domain.Notification `json:"notification"`
}

// ClickResponse answers a notification interaction.
type ClickResponse struct {
	Window *domain.Window `json:"window"`
}

// RegisterClientRequest announces a new application window.
type RegisterClientRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleStatus(c echo.Context) error {
	status, err := s.deps.Status.Status(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleMessage(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	reply, err := s.deps.Dispatcher.Handle(c.Request().Context(), worker.MessageEvent{Data: body})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, MessageResponse{Handled: reply.Handled})
}

func (s *Server) handlePush(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	reply, err := s.deps.Dispatcher.Handle(c.Request().Context(), worker.PushEvent{Payload: body})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, PushResponse{Notification: reply.Notification})
}

func (s *Server) handleNotifications(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.Tray.List(c.Request().Context()))
}

func (s *Server) handleClick(c echo.Context) error {
	var click domain.NotificationClick
	if err := c.Bind(&click); err != nil {
		return err
	}
	reply, err := s.deps.Dispatcher.Handle(c.Request().Context(), worker.NotificationClickEvent{Click: click})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ClickResponse{Window: reply.Window})
}

func (s *Server) handleSync(c echo.Context) error {
	var req domain.SyncRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	reply, err := s.deps.Dispatcher.Handle(c.Request().Context(), worker.SyncEvent{Request: req})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusAccepted, MessageResponse{Handled: reply.Handled})
}

func (s *Server) handleListClients(c echo.Context) error {
	windows, err := s.deps.Windows.Windows(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, windows)
}

func (s *Server) handleRegisterClient(c echo.Context) error {
	var req RegisterClientRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	return c.JSON(http.StatusCreated, s.deps.Windows.Register(c.Request().Context(), req.URL))
}

func (s *Server) handleRemoveClient(c echo.Context) error {
	if !s.deps.Windows.Remove(c.Request().Context(), c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, "window not found")
	}
	return c.NoContent(http.StatusNoContent)
}
