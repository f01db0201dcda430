// Package planning implements the stream request lifecycle: creating
// requests, reviewing their time slots and booking tech support.
package planning

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/piquetdestream/piquet/internal/interval"
	"github.com/piquetdestream/piquet/internal/stream"
)

// Engine owns every status transition of stream requests, time slots and
// tech appointments. Each call runs on behalf of a stream.Principal.
type Engine struct {
	repo   stream.Repository
	logger *zap.Logger

	// Now is injectable for testing.
	Now func() time.Time
}

// New creates an Engine over repo. A nil logger discards logs.
func New(repo stream.Repository, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{repo: repo, logger: logger, Now: time.Now}
}

// ScheduleQuery selects the requests shown for one week.
type ScheduleQuery struct {
	WeekStart  time.Time
	Statuses   []stream.TimeSlotStatus
	StreamerID string
}

func requireAuth(p stream.Principal) error {
	if !p.Authenticated() {
		return fmt.Errorf("%w: authentication required", stream.ErrPermissionDenied)
	}
	return nil
}

func requireElevated(p stream.Principal) error {
	if err := requireAuth(p); err != nil {
		return err
	}
	if !p.Elevated() {
		return fmt.Errorf("%w: planning or admin role required", stream.ErrPermissionDenied)
	}
	return nil
}

// CreateStreamRequest validates in and stores a new request with all of its
// candidate slots. Elevated callers may create the request for another
// streamer; everyone else always creates it for themselves. Slots fully
// contained in an already approved slot start DENIED, the others PENDING.
func (e *Engine) CreateStreamRequest(ctx context.Context, p stream.Principal, in stream.CreateInput) (*stream.StreamRequest, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	streamerID := p.UserID
	if p.Elevated() && in.StreamerID != "" {
		streamerID = in.StreamerID
	}

	streamer, err := e.repo.GetUser(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("getting streamer: %w", err)
	}
	if streamer == nil {
		return nil, fmt.Errorf("streamer %s: %w", streamerID, stream.ErrNotFound)
	}
	if !streamer.HasRole(stream.RoleStreamer) {
		return nil, stream.ErrNotAStreamer
	}

	candidates := in.Intervals()
	if !p.Elevated() {
		if err := e.checkNotPast(candidates); err != nil {
			return nil, err
		}
	}

	approved, err := e.approvedAround(ctx, candidates)
	if err != nil {
		return nil, err
	}

	req := &stream.StreamRequest{
		StreamerID:  streamerID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Guests:      in.Guests,
		CreatedAt:   e.Now().UTC(),
	}
	for _, c := range candidates {
		req.TimeSlots = append(req.TimeSlots, &stream.TimeSlot{
			Start:  c.Start,
			End:    c.End,
			Status: stream.SeedStatus(c, approved),
		})
	}

	if err := e.repo.CreateStreamRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("creating stream request: %w", err)
	}
	req.Streamer = streamer

	e.logger.Info("stream request created",
		zap.Int64("request_id", req.ID),
		zap.String("streamer_id", streamerID),
		zap.String("actor", p.UserID),
		zap.Int("slots", len(req.TimeSlots)),
	)
	return req, nil
}

// EditStreamRequest updates a request's metadata and candidate slots.
// Only the streamer and elevated callers may edit. The approved slot cannot
// be moved or removed. Added and moved slots are checked and seeded like the
// slots of a new request. Empty Title and Category keep the stored values;
// Description is always replaced.
func (e *Engine) EditStreamRequest(ctx context.Context, p stream.Principal, in stream.EditInput) (*stream.StreamRequest, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	req, err := e.repo.GetStreamRequest(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("getting stream request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("stream request %d: %w", in.ID, stream.ErrNotFound)
	}
	if req.StreamerID != p.UserID && !p.Elevated() {
		return nil, fmt.Errorf("%w: not the owner of stream request %d", stream.ErrPermissionDenied, in.ID)
	}

	var (
		kept  []*stream.TimeSlot
		added []interval.Interval
		moved []*stream.TimeSlot // kept slots whose interval changed
	)
	keptIDs := make(map[int64]bool)
	for _, s := range in.TimeSlots {
		if s.ID == 0 {
			added = append(added, s.Interval())
			continue
		}
		stored := req.Slot(s.ID)
		if stored == nil {
			return nil, fmt.Errorf("time slot %d: %w", s.ID, stream.ErrNotFound)
		}
		changed := !stored.Start.Equal(s.Start) || !stored.End.Equal(s.End)
		if stored.Status == stream.SlotApproved && changed {
			return nil, stream.ErrSlotLocked
		}
		slot := *stored
		slot.Start, slot.End = s.Start, s.End
		kept = append(kept, &slot)
		keptIDs[s.ID] = true
		if changed {
			moved = append(moved, &slot)
		}
	}
	if approvedSlot := req.ApprovedSlot(); approvedSlot != nil && !keptIDs[approvedSlot.ID] {
		return nil, stream.ErrSlotLocked
	}

	// Moved slots go through the same checks as new ones.
	candidates := append([]interval.Interval(nil), added...)
	for _, m := range moved {
		candidates = append(candidates, m.Interval())
	}
	if !p.Elevated() {
		if err := e.checkNotPast(candidates); err != nil {
			return nil, err
		}
	}
	approved, err := e.approvedAround(ctx, candidates)
	if err != nil {
		return nil, err
	}
	hasApproved := req.ApprovedSlot() != nil
	seed := func(c interval.Interval) stream.TimeSlotStatus {
		if hasApproved {
			return stream.SlotDenied
		}
		return stream.SeedStatus(c, approved)
	}
	for _, m := range moved {
		// A denied slot stays denied wherever it moves.
		if m.Status != stream.SlotDenied {
			m.Status = seed(m.Interval())
		}
	}
	for _, c := range added {
		kept = append(kept, &stream.TimeSlot{StreamRequestID: req.ID, Start: c.Start, End: c.End, Status: seed(c)})
	}

	if in.Title != "" {
		req.Title = in.Title
	}
	if in.Category != "" {
		req.Category = in.Category
	}
	// Description is replaced, so an empty one clears it.
	req.Description = in.Description
	if in.Guests != nil {
		req.Guests = in.Guests
	}
	req.TimeSlots = kept

	if err := e.repo.UpdateStreamRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("updating stream request: %w", err)
	}

	e.logger.Info("stream request edited",
		zap.Int64("request_id", req.ID),
		zap.String("actor", p.UserID),
		zap.Int("slots", len(kept)),
		zap.Int("added", len(added)),
		zap.Int("moved", len(moved)),
	)
	return e.getRequest(ctx, req.ID)
}

// SetStreamRequestStatus sets the status of one slot of a request and
// returns the refreshed request. Approving a slot denies all the others.
func (e *Engine) SetStreamRequestStatus(ctx context.Context, p stream.Principal, requestID, slotID int64, status stream.TimeSlotStatus) (*stream.StreamRequest, error) {
	if err := requireElevated(p); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown time slot status %q", stream.ErrValidation, status)
	}

	if err := e.repo.SetTimeSlotStatus(ctx, requestID, slotID, status); err != nil {
		return nil, fmt.Errorf("setting time slot status: %w", err)
	}

	e.logger.Info("time slot status set",
		zap.Int64("request_id", requestID),
		zap.Int64("slot_id", slotID),
		zap.String("status", string(status)),
		zap.String("actor", p.UserID),
	)
	return e.getRequest(ctx, requestID)
}

// CreateTechAppointment books tech support for a request that has an
// approved slot. A previously DENIED appointment is replaced; the new or
// replaced appointment is PENDING.
func (e *Engine) CreateTechAppointment(ctx context.Context, p stream.Principal, requestID int64, startTime time.Time, techID string) (*stream.TechAppointment, error) {
	if err := requireElevated(p); err != nil {
		return nil, err
	}
	if startTime.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", stream.ErrValidation)
	}

	req, err := e.repo.GetStreamRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("getting stream request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("stream request %d: %w", requestID, stream.ErrNotFound)
	}
	if a := req.TechAppointment; a != nil && a.Status != stream.AppointmentDenied {
		return nil, fmt.Errorf("%w (status %s)", stream.ErrAppointmentExists, a.Status)
	}
	if req.ApprovedSlot() == nil {
		return nil, stream.ErrNoApprovedSlot
	}

	tech, err := e.repo.GetUser(ctx, techID)
	if err != nil {
		return nil, fmt.Errorf("getting tech: %w", err)
	}
	if tech == nil {
		return nil, fmt.Errorf("tech %s: %w", techID, stream.ErrNotFound)
	}
	if !tech.HasRole(stream.RoleTech) {
		return nil, stream.ErrNotATech
	}

	appt := &stream.TechAppointment{
		StreamRequestID: requestID,
		TechUserID:      techID,
		StartTime:       startTime,
		Status:          stream.AppointmentPending,
	}
	if req.TechAppointment != nil {
		appt.ID = req.TechAppointment.ID
	}
	if err := e.repo.UpsertTechAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("saving tech appointment: %w", err)
	}
	appt.Tech = tech

	e.logger.Info("tech appointment created",
		zap.Int64("request_id", requestID),
		zap.Int64("appointment_id", appt.ID),
		zap.String("tech_id", techID),
		zap.String("actor", p.UserID),
	)
	return appt, nil
}

// SetTechAppointmentStatus approves or denies an appointment and returns the
// request owning it.
func (e *Engine) SetTechAppointmentStatus(ctx context.Context, p stream.Principal, appointmentID int64, status stream.AppointmentStatus) (*stream.StreamRequest, error) {
	if err := requireElevated(p); err != nil {
		return nil, err
	}
	if status != stream.AppointmentApproved && status != stream.AppointmentDenied {
		return nil, fmt.Errorf("%w: appointment status must be APPROVED or DENIED", stream.ErrValidation)
	}

	appt, err := e.repo.GetTechAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("getting tech appointment: %w", err)
	}
	if appt == nil {
		return nil, fmt.Errorf("tech appointment %d: %w", appointmentID, stream.ErrNotFound)
	}
	if status == stream.AppointmentApproved && appt.Status == stream.AppointmentApproved {
		return nil, fmt.Errorf("tech appointment %d: %w", appointmentID, stream.ErrAlreadyApproved)
	}

	if err := e.repo.SetTechAppointmentStatus(ctx, appointmentID, status); err != nil {
		return nil, fmt.Errorf("setting tech appointment status: %w", err)
	}

	e.logger.Info("tech appointment status set",
		zap.Int64("request_id", appt.StreamRequestID),
		zap.Int64("appointment_id", appointmentID),
		zap.String("status", string(status)),
		zap.String("actor", p.UserID),
	)
	return e.getRequest(ctx, appt.StreamRequestID)
}

// GetSchedule returns the requests with slots inside [WeekStart, WeekStart+7d).
// Unauthenticated callers only ever see APPROVED slots.
func (e *Engine) GetSchedule(ctx context.Context, p stream.Principal, q ScheduleQuery) ([]*stream.StreamRequest, error) {
	if q.WeekStart.IsZero() {
		return nil, fmt.Errorf("%w: week start is required", stream.ErrValidation)
	}
	statuses := q.Statuses
	if !p.Authenticated() {
		statuses = []stream.TimeSlotStatus{stream.SlotApproved}
	}
	for _, st := range statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown time slot status %q", stream.ErrValidation, st)
		}
	}

	requests, err := e.repo.ListSchedule(ctx, stream.ScheduleFilter{
		From:       q.WeekStart,
		To:         q.WeekStart.AddDate(0, 0, 7),
		Statuses:   statuses,
		StreamerID: q.StreamerID,
	})
	if err != nil {
		return nil, fmt.Errorf("listing schedule: %w", err)
	}
	return requests, nil
}

// GetStreamRequest returns one request with its slots and appointment.
func (e *Engine) GetStreamRequest(ctx context.Context, p stream.Principal, id int64) (*stream.StreamRequest, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	return e.getRequest(ctx, id)
}

// ApprovedIntervals returns every approved slot overlapping the week
// starting at weekStart, ready to be projected onto a grid.
func (e *Engine) ApprovedIntervals(ctx context.Context, weekStart time.Time) ([]interval.Interval, error) {
	slots, err := e.repo.ListApprovedSlots(ctx, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, fmt.Errorf("listing approved slots: %w", err)
	}
	return toIntervals(slots), nil
}

func (e *Engine) getRequest(ctx context.Context, id int64) (*stream.StreamRequest, error) {
	req, err := e.repo.GetStreamRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting stream request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("stream request %d: %w", id, stream.ErrNotFound)
	}
	return req, nil
}

func (e *Engine) checkNotPast(candidates []interval.Interval) error {
	now := e.Now()
	for _, c := range candidates {
		if c.Start.Before(now) {
			return stream.ErrPastTimeSlot
		}
	}
	return nil
}

// approvedAround returns the approved slots overlapping the bounding range
// of candidates.
func (e *Engine) approvedAround(ctx context.Context, candidates []interval.Interval) ([]interval.Interval, error) {
	bounds, ok := interval.Bounds(candidates)
	if !ok {
		return nil, nil
	}
	slots, err := e.repo.ListApprovedSlots(ctx, bounds.Start, bounds.End)
	if err != nil {
		return nil, fmt.Errorf("listing approved slots: %w", err)
	}
	return toIntervals(slots), nil
}

func toIntervals(slots []*stream.TimeSlot) []interval.Interval {
	out := make([]interval.Interval, len(slots))
	for i, s := range slots {
		out[i] = s.Interval()
	}
	return out
}
