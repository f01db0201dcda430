package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/piquetdestream/piquet/internal/stream"
)

// Monday 2024-06-03, 00:00 UTC.
var testWeek = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func day(hour int) time.Time {
	return testWeek.Add(time.Duration(hour) * time.Hour)
}

func slotAt(start, end time.Time) *stream.TimeSlot {
	return &stream.TimeSlot{Start: start, End: end, Status: stream.SlotPending}
}

// seedRequest stores a streamer and a request carrying slots.
func seedRequest(t *testing.T, repo stream.Repository, streamerID string, slots ...*stream.TimeSlot) *stream.StreamRequest {
	t.Helper()
	ctx := context.Background()

	err := repo.SaveUser(ctx, &stream.User{ID: streamerID, Name: streamerID, Roles: []stream.Role{stream.RoleStreamer}})
	if err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}
	req := &stream.StreamRequest{
		StreamerID: streamerID,
		Title:      "Speedrun night",
		Category:   "games",
		Guests:     []string{"guest1"},
		TimeSlots:  slots,
	}
	if err := repo.CreateStreamRequest(ctx, req); err != nil {
		t.Fatalf("CreateStreamRequest failed: %v", err)
	}
	return req
}

// runRepositoryTests exercises a stream.Repository implementation.
// newRepo must return an empty store.
func runRepositoryTests(t *testing.T, newRepo func(t *testing.T) stream.Repository) {
	t.Run("users", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		u, err := repo.GetUser(ctx, "missing")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if u != nil {
			t.Fatalf("expected nil for unknown user, got %+v", u)
		}

		if err := repo.SaveUser(ctx, &stream.User{ID: "b", Name: "Bob", Roles: []stream.Role{stream.RoleTech}}); err != nil {
			t.Fatalf("SaveUser failed: %v", err)
		}
		if err := repo.SaveUser(ctx, &stream.User{ID: "a", Name: "Ann", Roles: nil}); err != nil {
			t.Fatalf("SaveUser failed: %v", err)
		}
		// Replace roles.
		if err := repo.SaveUser(ctx, &stream.User{ID: "b", Name: "Bobby", Roles: []stream.Role{stream.RoleTech, stream.RoleStreamer}}); err != nil {
			t.Fatalf("SaveUser failed: %v", err)
		}

		users, err := repo.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 2 {
			t.Fatalf("got %d users, want 2", len(users))
		}
		if users[0].ID != "a" || users[1].ID != "b" {
			t.Errorf("users not ordered by id: %s, %s", users[0].ID, users[1].ID)
		}
		if users[1].Name != "Bobby" || !users[1].HasRole(stream.RoleStreamer) {
			t.Errorf("user b = %+v, want Bobby with STREAMER", users[1])
		}
		if len(users[0].Roles) != 0 {
			t.Errorf("user a roles = %v, want none", users[0].Roles)
		}
	})

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		req := seedRequest(t, repo, "s1",
			slotAt(day(14), day(16)),
			slotAt(day(10), day(12)),
		)
		if req.ID == 0 {
			t.Fatal("expected request ID to be set")
		}
		for _, s := range req.TimeSlots {
			if s.ID == 0 || s.StreamRequestID != req.ID {
				t.Errorf("slot not linked: %+v", s)
			}
		}

		got, err := repo.GetStreamRequest(ctx, req.ID)
		if err != nil {
			t.Fatalf("GetStreamRequest failed: %v", err)
		}
		if got.Title != "Speedrun night" || got.Category != "games" {
			t.Errorf("metadata = %q/%q", got.Title, got.Category)
		}
		if len(got.Guests) != 1 || got.Guests[0] != "guest1" {
			t.Errorf("guests = %v", got.Guests)
		}
		if got.Streamer == nil || got.Streamer.ID != "s1" {
			t.Errorf("streamer = %+v", got.Streamer)
		}
		if got.TechAppointment != nil {
			t.Errorf("unexpected tech appointment %+v", got.TechAppointment)
		}
		if len(got.TimeSlots) != 2 {
			t.Fatalf("got %d slots, want 2", len(got.TimeSlots))
		}
		// Ordered by start time.
		if !got.TimeSlots[0].Start.Equal(day(10)) || !got.TimeSlots[1].Start.Equal(day(14)) {
			t.Errorf("slots not ordered: %v, %v", got.TimeSlots[0].Start, got.TimeSlots[1].Start)
		}
		if got.TimeSlots[0].Start.Location() != time.UTC {
			t.Errorf("slot start location = %v, want UTC", got.TimeSlots[0].Start.Location())
		}

		missing, err := repo.GetStreamRequest(ctx, 9999)
		if err != nil {
			t.Fatalf("GetStreamRequest failed: %v", err)
		}
		if missing != nil {
			t.Errorf("expected nil for unknown request, got %+v", missing)
		}
	})

	t.Run("approve denies the others", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		req := seedRequest(t, repo, "s1",
			slotAt(day(10), day(12)),
			slotAt(day(14), day(16)),
			slotAt(day(18), day(20)),
		)
		x, y := req.TimeSlots[0].ID, req.TimeSlots[1].ID

		if err := repo.SetTimeSlotStatus(ctx, req.ID, y, stream.SlotApproved); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		got, _ := repo.GetStreamRequest(ctx, req.ID)
		for _, s := range got.TimeSlots {
			want := stream.SlotDenied
			if s.ID == y {
				want = stream.SlotApproved
			}
			if s.Status != want {
				t.Errorf("slot %d status = %s, want %s", s.ID, s.Status, want)
			}
		}

		err := repo.SetTimeSlotStatus(ctx, req.ID, x, stream.SlotApproved)
		if !errors.Is(err, stream.ErrAlreadyApproved) {
			t.Fatalf("approving a second slot: got %v, want ErrAlreadyApproved", err)
		}
		if !errors.Is(err, stream.ErrInvalidState) {
			t.Errorf("ErrAlreadyApproved should be an invalid state error")
		}

		// Re-approving the same slot is idempotent.
		if err := repo.SetTimeSlotStatus(ctx, req.ID, y, stream.SlotApproved); err != nil {
			t.Errorf("re-approve failed: %v", err)
		}

		// Un-approving frees the request.
		if err := repo.SetTimeSlotStatus(ctx, req.ID, y, stream.SlotPending); err != nil {
			t.Fatalf("un-approve failed: %v", err)
		}
		if err := repo.SetTimeSlotStatus(ctx, req.ID, x, stream.SlotApproved); err != nil {
			t.Fatalf("approve after un-approve failed: %v", err)
		}
		got, _ = repo.GetStreamRequest(ctx, req.ID)
		if a := got.ApprovedSlot(); a == nil || a.ID != x {
			t.Errorf("approved slot = %+v, want %d", a, x)
		}
	})

	t.Run("status errors", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		req := seedRequest(t, repo, "s1", slotAt(day(10), day(12)))

		err := repo.SetTimeSlotStatus(ctx, 9999, req.TimeSlots[0].ID, stream.SlotApproved)
		if !errors.Is(err, stream.ErrNotFound) {
			t.Errorf("unknown request: got %v, want ErrNotFound", err)
		}
		err = repo.SetTimeSlotStatus(ctx, req.ID, 9999, stream.SlotApproved)
		if !errors.Is(err, stream.ErrNotFound) {
			t.Errorf("unknown slot: got %v, want ErrNotFound", err)
		}
		if err := repo.SetTimeSlotStatus(ctx, req.ID, req.TimeSlots[0].ID, stream.SlotDenied); err != nil {
			t.Errorf("deny failed: %v", err)
		}
	})

	t.Run("approved slots and schedule", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a := seedRequest(t, repo, "s1",
			slotAt(day(10), day(12)),
			slotAt(day(24+10), day(24+12)),
		)
		b := seedRequest(t, repo, "s2",
			slotAt(day(9), day(11)),
			slotAt(day(7*24+1), day(7*24+2)), // next week
		)
		if err := repo.SetTimeSlotStatus(ctx, a.ID, a.TimeSlots[0].ID, stream.SlotApproved); err != nil {
			t.Fatalf("approve failed: %v", err)
		}

		approved, err := repo.ListApprovedSlots(ctx, day(11), day(13))
		if err != nil {
			t.Fatalf("ListApprovedSlots failed: %v", err)
		}
		if len(approved) != 1 || approved[0].ID != a.TimeSlots[0].ID {
			t.Errorf("approved overlapping [11,13) = %v", approved)
		}
		// Touching end is not an overlap.
		approved, _ = repo.ListApprovedSlots(ctx, day(12), day(14))
		if len(approved) != 0 {
			t.Errorf("adjacent range returned %d approved slots", len(approved))
		}

		week := stream.ScheduleFilter{From: testWeek, To: testWeek.AddDate(0, 0, 7)}
		requests, err := repo.ListSchedule(ctx, week)
		if err != nil {
			t.Fatalf("ListSchedule failed: %v", err)
		}
		if len(requests) != 2 {
			t.Fatalf("got %d requests, want 2", len(requests))
		}
		// b's first in-week slot starts at 09:00, before a's.
		if requests[0].ID != b.ID || requests[1].ID != a.ID {
			t.Errorf("request order = %d, %d", requests[0].ID, requests[1].ID)
		}
		if len(requests[0].TimeSlots) != 1 {
			t.Errorf("out-of-week slot listed: %d slots", len(requests[0].TimeSlots))
		}

		week.Statuses = []stream.TimeSlotStatus{stream.SlotApproved}
		requests, _ = repo.ListSchedule(ctx, week)
		if len(requests) != 1 || requests[0].ID != a.ID || len(requests[0].TimeSlots) != 1 {
			t.Errorf("approved schedule = %+v", requests)
		}

		week.Statuses = nil
		week.StreamerID = "s2"
		requests, _ = repo.ListSchedule(ctx, week)
		if len(requests) != 1 || requests[0].ID != b.ID {
			t.Errorf("streamer schedule = %+v", requests)
		}
	})

	t.Run("update", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		req := seedRequest(t, repo, "s1",
			slotAt(day(10), day(12)),
			slotAt(day(14), day(16)),
		)
		keep := req.TimeSlots[0]
		keep.Start, keep.End = day(11), day(13)

		req.Title = "Retro night"
		req.Guests = nil
		req.TimeSlots = []*stream.TimeSlot{keep, slotAt(day(20), day(21))}
		if err := repo.UpdateStreamRequest(ctx, req); err != nil {
			t.Fatalf("UpdateStreamRequest failed: %v", err)
		}
		if req.TimeSlots[1].ID == 0 {
			t.Error("added slot has no ID")
		}

		got, _ := repo.GetStreamRequest(ctx, req.ID)
		if got.Title != "Retro night" {
			t.Errorf("title = %q", got.Title)
		}
		if len(got.Guests) != 0 {
			t.Errorf("guests = %v, want none", got.Guests)
		}
		if len(got.TimeSlots) != 2 {
			t.Fatalf("got %d slots, want 2", len(got.TimeSlots))
		}
		if got.TimeSlots[0].ID != keep.ID || !got.TimeSlots[0].Start.Equal(day(11)) {
			t.Errorf("kept slot = %+v", got.TimeSlots[0])
		}

		req.ID = 9999
		if err := repo.UpdateStreamRequest(ctx, req); !errors.Is(err, stream.ErrNotFound) {
			t.Errorf("unknown request: got %v, want ErrNotFound", err)
		}
	})

	t.Run("tech appointments", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		req := seedRequest(t, repo, "s1", slotAt(day(10), day(12)))
		if err := repo.SaveUser(ctx, &stream.User{ID: "t1", Name: "Tess", Roles: []stream.Role{stream.RoleTech}}); err != nil {
			t.Fatalf("SaveUser failed: %v", err)
		}

		a := &stream.TechAppointment{
			StreamRequestID: req.ID,
			TechUserID:      "t1",
			StartTime:       day(9),
			Status:          stream.AppointmentPending,
		}
		if err := repo.UpsertTechAppointment(ctx, a); err != nil {
			t.Fatalf("UpsertTechAppointment failed: %v", err)
		}
		if a.ID == 0 {
			t.Fatal("expected appointment ID to be set")
		}

		if err := repo.SetTechAppointmentStatus(ctx, a.ID, stream.AppointmentDenied); err != nil {
			t.Fatalf("SetTechAppointmentStatus failed: %v", err)
		}

		// Replacing keeps one appointment per request.
		replaced := &stream.TechAppointment{
			StreamRequestID: req.ID,
			TechUserID:      "t1",
			StartTime:       day(9).Add(30 * time.Minute),
			Status:          stream.AppointmentPending,
		}
		if err := repo.UpsertTechAppointment(ctx, replaced); err != nil {
			t.Fatalf("UpsertTechAppointment failed: %v", err)
		}
		if replaced.ID != a.ID {
			t.Errorf("replaced appointment id = %d, want %d", replaced.ID, a.ID)
		}

		got, err := repo.GetTechAppointment(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetTechAppointment failed: %v", err)
		}
		if got.Status != stream.AppointmentPending || !got.StartTime.Equal(replaced.StartTime) {
			t.Errorf("appointment = %+v", got)
		}
		if got.Tech == nil || got.Tech.ID != "t1" {
			t.Errorf("tech = %+v", got.Tech)
		}

		r, _ := repo.GetStreamRequest(ctx, req.ID)
		if r.TechAppointment == nil || r.TechAppointment.ID != a.ID {
			t.Errorf("request appointment = %+v", r.TechAppointment)
		}

		if err := repo.SetTechAppointmentStatus(ctx, 9999, stream.AppointmentApproved); !errors.Is(err, stream.ErrNotFound) {
			t.Errorf("unknown appointment: got %v, want ErrNotFound", err)
		}
		missing, err := repo.GetTechAppointment(ctx, 9999)
		if err != nil || missing != nil {
			t.Errorf("GetTechAppointment(9999) = %+v, %v", missing, err)
		}
	})
}
