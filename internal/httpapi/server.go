// Package httpapi exposes the planning engine over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piquetdestream/piquet/internal/dateutil"
	"github.com/piquetdestream/piquet/internal/ics"
	"github.com/piquetdestream/piquet/internal/planning"
	"github.com/piquetdestream/piquet/internal/stream"
)

// Options configures a Server.
type Options struct {
	Location *time.Location // operating timezone, UTC when nil
	FirstDay time.Weekday   // first day of the default week
	Logger   *zap.Logger
	Now      func() time.Time
}

// Server routes HTTP requests to a planning.Engine.
type Server struct {
	engine   *planning.Engine
	auth     *Authenticator
	logger   *zap.Logger
	loc      *time.Location
	firstDay time.Weekday
	now      func() time.Time
	router   *gin.Engine
}

// New creates a Server and registers its routes.
func New(engine *planning.Engine, auth *Authenticator, opts Options) *Server {
	s := &Server{
		engine:   engine,
		auth:     auth,
		logger:   opts.Logger,
		loc:      opts.Location,
		firstDay: opts.FirstDay,
		now:      opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(auth.Middleware())
	{
		api.GET("/schedule", s.getSchedule)
		api.GET("/schedule.ics", s.getScheduleICS)
		api.POST("/stream-requests", s.createStreamRequest)
		api.GET("/stream-requests/:id", s.getStreamRequest)
		api.PUT("/stream-requests/:id", s.editStreamRequest)
		api.POST("/stream-requests/:id/timeslots/:slotId/status", s.setTimeSlotStatus)
		api.POST("/stream-requests/:id/tech-appointment", s.createTechAppointment)
		api.POST("/tech-appointments/:id/status", s.setTechAppointmentStatus)
	}

	s.router = r
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// scheduleQuery reads weekStart, status and streamerId query parameters.
// weekStart defaults to the start of the current week.
func (s *Server) scheduleQuery(c *gin.Context) (planning.ScheduleQuery, error) {
	var q planning.ScheduleQuery

	if v := c.Query("weekStart"); v != "" {
		d, err := dateutil.ParseDate(v, s.loc)
		if err != nil {
			return q, fmt.Errorf("%w: weekStart: %v", stream.ErrValidation, err)
		}
		q.WeekStart = d
	} else {
		q.WeekStart = dateutil.WeekStart(s.now().In(s.loc), s.firstDay)
	}

	for _, v := range c.QueryArray("status") {
		st := stream.TimeSlotStatus(strings.ToUpper(v))
		if !st.Valid() {
			return q, fmt.Errorf("%w: unknown time slot status %q", stream.ErrValidation, v)
		}
		q.Statuses = append(q.Statuses, st)
	}
	q.StreamerID = c.Query("streamerId")
	return q, nil
}

func (s *Server) getSchedule(c *gin.Context) {
	q, err := s.scheduleQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	requests, err := s.engine.GetSchedule(c.Request.Context(), principalFrom(c), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRequestsJSON(requests))
}

func (s *Server) getScheduleICS(c *gin.Context) {
	q, err := s.scheduleQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	q.Statuses = []stream.TimeSlotStatus{stream.SlotApproved}
	requests, err := s.engine.GetSchedule(c.Request.Context(), principalFrom(c), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.Status(http.StatusOK)
	if err := ics.Write(c.Writer, requests, s.now()); err != nil {
		s.logger.Error("writing calendar", zap.Error(err))
	}
}

func (s *Server) createStreamRequest(c *gin.Context) {
	var in stream.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req, err := s.engine.CreateStreamRequest(c.Request.Context(), principalFrom(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRequestJSON(req))
}

func (s *Server) getStreamRequest(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	req, err := s.engine.GetStreamRequest(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRequestJSON(req))
}

func (s *Server) editStreamRequest(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var in stream.EditInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	in.ID = id
	req, err := s.engine.EditStreamRequest(c.Request.Context(), principalFrom(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRequestJSON(req))
}

type statusBody struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) setTimeSlotStatus(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	slotID, ok := s.idParam(c, "slotId")
	if !ok {
		return
	}
	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	status := stream.TimeSlotStatus(strings.ToUpper(body.Status))
	req, err := s.engine.SetStreamRequestStatus(c.Request.Context(), principalFrom(c), id, slotID, status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRequestJSON(req))
}

type techAppointmentBody struct {
	StartTime time.Time `json:"startTime" binding:"required"`
	TechID    string    `json:"techId" binding:"required"`
}

func (s *Server) createTechAppointment(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var body techAppointmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	appt, err := s.engine.CreateTechAppointment(c.Request.Context(), principalFrom(c), id, body.StartTime, body.TechID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAppointmentJSON(appt))
}

func (s *Server) setTechAppointmentStatus(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	status := stream.AppointmentStatus(strings.ToUpper(body.Status))
	req, err := s.engine.SetTechAppointmentStatus(c.Request.Context(), principalFrom(c), id, status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRequestJSON(req))
}

func (s *Server) idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}
