package planning

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/piquetdestream/piquet/internal/db"
	"github.com/piquetdestream/piquet/internal/stream"
)

// Monday 2024-06-03, 00:00 UTC.
var week = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return week.Add(time.Duration(hour) * time.Hour)
}

var (
	admin    = stream.Principal{UserID: "admin", Roles: []stream.Role{stream.RoleAdmin}}
	planner  = stream.Principal{UserID: "planner", Roles: []stream.Role{stream.RolePlanning}}
	streamer = stream.Principal{UserID: "s1", Roles: []stream.Role{stream.RoleStreamer}}
	other    = stream.Principal{UserID: "s2", Roles: []stream.Role{stream.RoleStreamer}}
	anon     = stream.Principal{}
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()

	repo, err := db.NewSQLite(ctx, filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	users := []*stream.User{
		{ID: "admin", Name: "Admin", Roles: []stream.Role{stream.RoleAdmin}},
		{ID: "planner", Name: "Planner", Roles: []stream.Role{stream.RolePlanning}},
		{ID: "s1", Name: "Streamer One", Roles: []stream.Role{stream.RoleStreamer}},
		{ID: "s2", Name: "Streamer Two", Roles: []stream.Role{stream.RoleStreamer}},
		{ID: "t1", Name: "Tech", Roles: []stream.Role{stream.RoleTech}},
		{ID: "m1", Name: "Mod", Roles: []stream.Role{stream.RoleModerator}},
	}
	for _, u := range users {
		if err := repo.SaveUser(ctx, u); err != nil {
			t.Fatalf("SaveUser failed: %v", err)
		}
	}

	e := New(repo, nil)
	e.Now = func() time.Time { return week.Add(-48 * time.Hour) }
	return e
}

func createInput(slots ...[2]int) stream.CreateInput {
	in := stream.CreateInput{Title: "Speedrun night", Category: "games"}
	for _, s := range slots {
		in.TimeSlots = append(in.TimeSlots, stream.SlotInput{Start: at(s[0]), End: at(s[1])})
	}
	return in
}

func mustCreate(t *testing.T, e *Engine, p stream.Principal, in stream.CreateInput) *stream.StreamRequest {
	t.Helper()
	req, err := e.CreateStreamRequest(context.Background(), p, in)
	if err != nil {
		t.Fatalf("CreateStreamRequest failed: %v", err)
	}
	return req
}

func statuses(req *stream.StreamRequest) []stream.TimeSlotStatus {
	out := make([]stream.TimeSlotStatus, len(req.TimeSlots))
	for i, s := range req.TimeSlots {
		out[i] = s.Status
	}
	return out
}

func TestCreateStreamRequest(t *testing.T) {
	e := newTestEngine(t)

	req := mustCreate(t, e, streamer, createInput([2]int{10, 12}, [2]int{14, 16}))
	if req.ID == 0 {
		t.Fatal("expected request ID")
	}
	if req.StreamerID != "s1" {
		t.Errorf("streamer = %s, want s1", req.StreamerID)
	}
	for _, st := range statuses(req) {
		if st != stream.SlotPending {
			t.Errorf("status = %s, want PENDING", st)
		}
	}
}

func TestCreateStreamRequest_StreamerIDOverride(t *testing.T) {
	e := newTestEngine(t)

	// A streamer cannot create on behalf of someone else.
	in := createInput([2]int{10, 12})
	in.StreamerID = "s2"
	req := mustCreate(t, e, streamer, in)
	if req.StreamerID != "s1" {
		t.Errorf("streamer = %s, want s1", req.StreamerID)
	}

	req = mustCreate(t, e, planner, in)
	if req.StreamerID != "s2" {
		t.Errorf("streamer = %s, want s2", req.StreamerID)
	}
}

func TestCreateStreamRequest_Errors(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name string
		p    stream.Principal
		in   stream.CreateInput
		want error
	}{
		{"anonymous", anon, createInput([2]int{10, 12}), stream.ErrPermissionDenied},
		{"empty title", streamer, stream.CreateInput{Category: "games", TimeSlots: createInput([2]int{10, 12}).TimeSlots}, stream.ErrValidation},
		{"no slots", streamer, createInput(), stream.ErrValidation},
		{"end before start", streamer, createInput([2]int{12, 10}), stream.ErrValidation},
		{"not a streamer", stream.Principal{UserID: "m1", Roles: []stream.Role{stream.RoleModerator}}, createInput([2]int{10, 12}), stream.ErrNotAStreamer},
		{"unknown user", stream.Principal{UserID: "ghost", Roles: []stream.Role{stream.RoleStreamer}}, createInput([2]int{10, 12}), stream.ErrNotFound},
		{"past slot", streamer, createInput([2]int{-72, -70}), stream.ErrPastTimeSlot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateStreamRequest(context.Background(), tt.p, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateStreamRequest_PastAllowedForPlanning(t *testing.T) {
	e := newTestEngine(t)

	in := createInput([2]int{-72, -70})
	in.StreamerID = "s1"
	if _, err := e.CreateStreamRequest(context.Background(), planner, in); err != nil {
		t.Fatalf("planning should create past slots: %v", err)
	}
}

func TestCreateStreamRequest_SeedsDeniedInsideApproved(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first := mustCreate(t, e, other, createInput([2]int{10, 14}))
	if _, err := e.SetStreamRequestStatus(ctx, planner, first.ID, first.TimeSlots[0].ID, stream.SlotApproved); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	req := mustCreate(t, e, streamer, createInput(
		[2]int{11, 12}, // inside the approved slot
		[2]int{13, 15}, // partial overlap
		[2]int{16, 17}, // disjoint
	))
	want := []stream.TimeSlotStatus{stream.SlotDenied, stream.SlotPending, stream.SlotPending}
	got := statuses(req)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSetStreamRequestStatus(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	req := mustCreate(t, e, streamer, createInput([2]int{10, 12}, [2]int{14, 16}))
	x, y := req.TimeSlots[0].ID, req.TimeSlots[1].ID

	if _, err := e.SetStreamRequestStatus(ctx, streamer, req.ID, y, stream.SlotApproved); !errors.Is(err, stream.ErrPermissionDenied) {
		t.Errorf("streamer approving: got %v, want ErrPermissionDenied", err)
	}

	got, err := e.SetStreamRequestStatus(ctx, planner, req.ID, y, stream.SlotApproved)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if a := got.ApprovedSlot(); a == nil || a.ID != y {
		t.Fatalf("approved slot = %+v, want %d", a, y)
	}
	if got.Slot(x).Status != stream.SlotDenied {
		t.Errorf("other slot = %s, want DENIED", got.Slot(x).Status)
	}

	_, err = e.SetStreamRequestStatus(ctx, admin, req.ID, x, stream.SlotApproved)
	if !errors.Is(err, stream.ErrAlreadyApproved) {
		t.Errorf("approving a second slot: got %v, want ErrAlreadyApproved", err)
	}

	if _, err := e.SetStreamRequestStatus(ctx, admin, req.ID, x, "MAYBE"); !errors.Is(err, stream.ErrValidation) {
		t.Errorf("unknown status: got %v, want ErrValidation", err)
	}
	if _, err := e.SetStreamRequestStatus(ctx, admin, 9999, x, stream.SlotDenied); !errors.Is(err, stream.ErrNotFound) {
		t.Errorf("unknown request: got %v, want ErrNotFound", err)
	}
}

func TestSetStreamRequestStatus_Concurrent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	req := mustCreate(t, e, streamer, createInput([2]int{10, 12}, [2]int{14, 16}, [2]int{18, 20}))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, s := range req.TimeSlots {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := e.SetStreamRequestStatus(ctx, planner, req.ID, id, stream.SlotApproved)
			switch {
			case err == nil:
				mu.Lock()
				wins++
				mu.Unlock()
			case errors.Is(err, stream.ErrAlreadyApproved), errors.Is(err, stream.ErrConflict):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(s.ID)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("got %d successful approvals, want 1", wins)
	}
	got, err := e.GetStreamRequest(ctx, planner, req.ID)
	if err != nil {
		t.Fatalf("GetStreamRequest failed: %v", err)
	}
	if n := stream.CountApproved(got.TimeSlots); n != 1 {
		t.Errorf("approved slots = %d, want 1", n)
	}
}

func TestEditStreamRequest(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	req := mustCreate(t, e, streamer, createInput([2]int{10, 12}, [2]int{14, 16}))
	x, y := req.TimeSlots[0].ID, req.TimeSlots[1].ID

	edit := stream.EditInput{
		ID:    req.ID,
		Title: "Retro night",
		TimeSlots: []stream.SlotInput{
			{ID: x, Start: at(9), End: at(11)},
			{Start: at(20), End: at(21)},
		},
	}
	if _, err := e.EditStreamRequest(ctx, other, edit); !errors.Is(err, stream.ErrPermissionDenied) {
		t.Errorf("non-owner edit: got %v, want ErrPermissionDenied", err)
	}

	got, err := e.EditStreamRequest(ctx, streamer, edit)
	if err != nil {
		t.Fatalf("EditStreamRequest failed: %v", err)
	}
	if got.Title != "Retro night" || got.Category != "games" {
		t.Errorf("metadata = %q/%q", got.Title, got.Category)
	}
	if len(got.TimeSlots) != 2 {
		t.Fatalf("got %d slots, want 2", len(got.TimeSlots))
	}
	if got.Slot(y) != nil {
		t.Error("removed slot still present")
	}
	if s := got.Slot(x); s == nil || !s.Start.Equal(at(9)) {
		t.Errorf("moved slot = %+v", s)
	}

	// Once approved, the slot is locked and new slots start DENIED.
	if _, err := e.SetStreamRequestStatus(ctx, planner, req.ID, x, stream.SlotApproved); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	edit.TimeSlots = []stream.SlotInput{{ID: x, Start: at(8), End: at(11)}}
	if _, err := e.EditStreamRequest(ctx, streamer, edit); !errors.Is(err, stream.ErrSlotLocked) {
		t.Errorf("moving approved slot: got %v, want ErrSlotLocked", err)
	}
	edit.TimeSlots = []stream.SlotInput{{Start: at(22), End: at(23)}}
	if _, err := e.EditStreamRequest(ctx, streamer, edit); !errors.Is(err, stream.ErrSlotLocked) {
		t.Errorf("removing approved slot: got %v, want ErrSlotLocked", err)
	}
	edit.TimeSlots = []stream.SlotInput{{ID: x, Start: at(9), End: at(11)}, {Start: at(22), End: at(23)}}
	got, err = e.EditStreamRequest(ctx, streamer, edit)
	if err != nil {
		t.Fatalf("EditStreamRequest failed: %v", err)
	}
	for _, s := range got.TimeSlots {
		if s.ID != x && s.Status != stream.SlotDenied {
			t.Errorf("added slot status = %s, want DENIED", s.Status)
		}
	}
}

func TestEditStreamRequest_MovedSlotsRechecked(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	rival := mustCreate(t, e, other, createInput([2]int{18, 20}))
	if _, err := e.SetStreamRequestStatus(ctx, planner, rival.ID, rival.TimeSlots[0].ID, stream.SlotApproved); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	req := mustCreate(t, e, streamer, createInput([2]int{10, 12}, [2]int{14, 16}))
	x, y := req.TimeSlots[0].ID, req.TimeSlots[1].ID
	keepY := stream.SlotInput{ID: y, Start: at(14), End: at(16)}
	edit := func(p stream.Principal, moved stream.SlotInput) (*stream.StreamRequest, error) {
		return e.EditStreamRequest(ctx, p, stream.EditInput{
			ID:        req.ID,
			TimeSlots: []stream.SlotInput{moved, keepY},
		})
	}

	// Into the rival's approved evening: DENIED like a new slot would be.
	got, err := edit(streamer, stream.SlotInput{ID: x, Start: at(18), End: at(19)})
	if err != nil {
		t.Fatalf("EditStreamRequest failed: %v", err)
	}
	if st := got.Slot(x).Status; st != stream.SlotDenied {
		t.Errorf("slot moved into approved time = %s, want DENIED", st)
	}
	if st := got.Slot(y).Status; st != stream.SlotPending {
		t.Errorf("unchanged slot = %s, want PENDING", st)
	}

	// Moving it out again does not revive it.
	got, err = edit(streamer, stream.SlotInput{ID: x, Start: at(22), End: at(23)})
	if err != nil {
		t.Fatalf("EditStreamRequest failed: %v", err)
	}
	if st := got.Slot(x).Status; st != stream.SlotDenied {
		t.Errorf("denied slot moved to free time = %s, want DENIED", st)
	}

	// Into the past: rejected for the streamer, allowed for planning.
	past := stream.SlotInput{ID: y, Start: at(-72), End: at(-70)}
	if _, err := e.EditStreamRequest(ctx, streamer, stream.EditInput{
		ID:        req.ID,
		TimeSlots: []stream.SlotInput{{ID: x, Start: at(22), End: at(23)}, past},
	}); !errors.Is(err, stream.ErrPastTimeSlot) {
		t.Errorf("streamer moving into the past: got %v, want ErrPastTimeSlot", err)
	}
	stored, err := e.GetStreamRequest(ctx, streamer, req.ID)
	if err != nil {
		t.Fatalf("GetStreamRequest failed: %v", err)
	}
	if s := stored.Slot(y); !s.Start.Equal(at(14)) {
		t.Errorf("rejected edit changed the slot: %+v", s)
	}
	if _, err := e.EditStreamRequest(ctx, planner, stream.EditInput{
		ID:        req.ID,
		TimeSlots: []stream.SlotInput{{ID: x, Start: at(22), End: at(23)}, past},
	}); err != nil {
		t.Errorf("planner moving into the past: %v", err)
	}
}

func TestEditStreamRequest_Metadata(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	in := createInput([2]int{10, 12})
	in.Description = "any% glitchless"
	req := mustCreate(t, e, streamer, in)
	slots := []stream.SlotInput{{ID: req.TimeSlots[0].ID, Start: at(10), End: at(12)}}

	got, err := e.EditStreamRequest(ctx, streamer, stream.EditInput{ID: req.ID, Description: "100%", TimeSlots: slots})
	if err != nil {
		t.Fatalf("EditStreamRequest failed: %v", err)
	}
	if got.Title != "Speedrun night" || got.Category != "games" || got.Description != "100%" {
		t.Errorf("metadata = %q/%q/%q", got.Title, got.Category, got.Description)
	}

	// Description is replaced, an empty one clears it.
	got, err = e.EditStreamRequest(ctx, streamer, stream.EditInput{ID: req.ID, TimeSlots: slots})
	if err != nil {
		t.Fatalf("EditStreamRequest failed: %v", err)
	}
	if got.Description != "" || got.Title != "Speedrun night" {
		t.Errorf("metadata = %q/%q", got.Title, got.Description)
	}
}

func TestCreateStreamRequest_SubMinuteTimes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	in := createInput()
	in.TimeSlots = []stream.SlotInput{{Start: at(12).Add(500 * time.Millisecond), End: at(13).Add(time.Second)}}
	req := mustCreate(t, e, streamer, in)
	if s := req.TimeSlots[0]; !s.Start.Equal(at(12)) || !s.End.Equal(at(13)) {
		t.Errorf("returned slot = %v-%v, want 12:00-13:00", s.Start, s.End)
	}
	stored, err := e.GetStreamRequest(ctx, streamer, req.ID)
	if err != nil {
		t.Fatalf("GetStreamRequest failed: %v", err)
	}
	if s := stored.TimeSlots[0]; !s.Start.Equal(req.TimeSlots[0].Start) || !s.End.Equal(req.TimeSlots[0].End) {
		t.Errorf("stored slot = %v-%v differs from returned %v-%v", s.Start, s.End, req.TimeSlots[0].Start, req.TimeSlots[0].End)
	}

	// Inside a single minute the slot is empty once truncated.
	in.TimeSlots = []stream.SlotInput{{Start: at(12).Add(500 * time.Millisecond), End: at(12).Add(900 * time.Millisecond)}}
	if _, err := e.CreateStreamRequest(ctx, streamer, in); !errors.Is(err, stream.ErrValidation) {
		t.Errorf("sub-minute slot: got %v, want ErrValidation", err)
	}
}

func TestCreateTechAppointment(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	req := mustCreate(t, e, streamer, createInput([2]int{10, 12}))

	_, err := e.CreateTechAppointment(ctx, planner, req.ID, at(9), "t1")
	if !errors.Is(err, stream.ErrNoApprovedSlot) {
		t.Fatalf("without approved slot: got %v, want ErrNoApprovedSlot", err)
	}

	if _, err := e.SetStreamRequestStatus(ctx, planner, req.ID, req.TimeSlots[0].ID, stream.SlotApproved); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if _, err := e.CreateTechAppointment(ctx, planner, req.ID, at(9), "s2"); !errors.Is(err, stream.ErrNotATech) {
		t.Errorf("non-tech: got %v, want ErrNotATech", err)
	}
	if _, err := e.CreateTechAppointment(ctx, streamer, req.ID, at(9), "t1"); !errors.Is(err, stream.ErrPermissionDenied) {
		t.Errorf("streamer booking: got %v, want ErrPermissionDenied", err)
	}

	appt, err := e.CreateTechAppointment(ctx, planner, req.ID, at(9), "t1")
	if err != nil {
		t.Fatalf("CreateTechAppointment failed: %v", err)
	}
	if appt.Status != stream.AppointmentPending || appt.Tech == nil {
		t.Errorf("appointment = %+v", appt)
	}

	if _, err := e.CreateTechAppointment(ctx, planner, req.ID, at(9), "t1"); !errors.Is(err, stream.ErrAppointmentExists) {
		t.Errorf("second booking: got %v, want ErrAppointmentExists", err)
	}

	got, err := e.SetTechAppointmentStatus(ctx, admin, appt.ID, stream.AppointmentApproved)
	if err != nil {
		t.Fatalf("SetTechAppointmentStatus failed: %v", err)
	}
	if got.TechAppointment.Status != stream.AppointmentApproved {
		t.Errorf("appointment status = %s", got.TechAppointment.Status)
	}
	if _, err := e.SetTechAppointmentStatus(ctx, admin, appt.ID, stream.AppointmentApproved); !errors.Is(err, stream.ErrAlreadyApproved) {
		t.Errorf("approving twice: got %v, want ErrAlreadyApproved", err)
	}

	// A denied appointment may be replaced.
	if _, err := e.SetTechAppointmentStatus(ctx, admin, appt.ID, stream.AppointmentDenied); err != nil {
		t.Fatalf("deny failed: %v", err)
	}
	replaced, err := e.CreateTechAppointment(ctx, planner, req.ID, at(9).Add(30*time.Minute), "t1")
	if err != nil {
		t.Fatalf("replacing denied appointment failed: %v", err)
	}
	if replaced.ID != appt.ID || replaced.Status != stream.AppointmentPending {
		t.Errorf("replaced = %+v", replaced)
	}

	if _, err := e.SetTechAppointmentStatus(ctx, admin, appt.ID, stream.AppointmentPending); !errors.Is(err, stream.ErrValidation) {
		t.Errorf("PENDING target: got %v, want ErrValidation", err)
	}
}

func TestGetSchedule(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a := mustCreate(t, e, streamer, createInput([2]int{10, 12}, [2]int{14, 16}))
	mustCreate(t, e, other, createInput([2]int{30, 32}))
	mustCreate(t, e, other, createInput([2]int{7*24 + 1, 7*24 + 2}))
	if _, err := e.SetStreamRequestStatus(ctx, planner, a.ID, a.TimeSlots[0].ID, stream.SlotApproved); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	tests := []struct {
		name     string
		p        stream.Principal
		q        ScheduleQuery
		requests int
		slots    int
	}{
		{"anonymous sees approved only", anon, ScheduleQuery{WeekStart: week, Statuses: []stream.TimeSlotStatus{stream.SlotPending}}, 1, 1},
		{"all statuses", planner, ScheduleQuery{WeekStart: week}, 2, 3},
		{"pending only", streamer, ScheduleQuery{WeekStart: week, Statuses: []stream.TimeSlotStatus{stream.SlotPending}}, 1, 1},
		{"by streamer", planner, ScheduleQuery{WeekStart: week, StreamerID: "s2"}, 1, 1},
		{"next week", planner, ScheduleQuery{WeekStart: week.AddDate(0, 0, 7)}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.GetSchedule(ctx, tt.p, tt.q)
			if err != nil {
				t.Fatalf("GetSchedule failed: %v", err)
			}
			if len(got) != tt.requests {
				t.Fatalf("got %d requests, want %d", len(got), tt.requests)
			}
			var n int
			for _, r := range got {
				n += len(r.TimeSlots)
			}
			if n != tt.slots {
				t.Errorf("got %d slots, want %d", n, tt.slots)
			}
		})
	}

	if _, err := e.GetSchedule(ctx, planner, ScheduleQuery{}); !errors.Is(err, stream.ErrValidation) {
		t.Errorf("missing week: got %v, want ErrValidation", err)
	}
}

func TestApprovedIntervals(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	req := mustCreate(t, e, streamer, createInput([2]int{10, 12}, [2]int{14, 16}))
	if _, err := e.SetStreamRequestStatus(ctx, planner, req.ID, req.TimeSlots[1].ID, stream.SlotApproved); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	got, err := e.ApprovedIntervals(ctx, week)
	if err != nil {
		t.Fatalf("ApprovedIntervals failed: %v", err)
	}
	if len(got) != 1 || !got[0].Start.Equal(at(14)) {
		t.Errorf("approved = %v", got)
	}
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	repo, err := db.NewSQLite(ctx, filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}
	defer func() { _ = repo.Close() }()
	e := New(repo, nil)

	// The first user bootstraps an empty store.
	boss := &stream.User{ID: "boss", Roles: []stream.Role{stream.RoleAdmin}}
	if err := e.RegisterUser(ctx, anon, boss); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	if err := e.RegisterUser(ctx, anon, &stream.User{ID: "x"}); !errors.Is(err, stream.ErrPermissionDenied) {
		t.Errorf("second anonymous register: got %v, want ErrPermissionDenied", err)
	}

	p, err := e.Principal(ctx, "boss")
	if err != nil {
		t.Fatalf("Principal failed: %v", err)
	}
	if err := e.RegisterUser(ctx, p, &stream.User{ID: "s1", Roles: []stream.Role{stream.RoleStreamer}}); err != nil {
		t.Fatalf("admin register failed: %v", err)
	}
	if err := e.RegisterUser(ctx, p, &stream.User{ID: " "}); !errors.Is(err, stream.ErrValidation) {
		t.Errorf("blank id: got %v, want ErrValidation", err)
	}

	u, err := e.SetUserRoles(ctx, p, "s1", []stream.Role{stream.RoleStreamer, stream.RoleTech})
	if err != nil {
		t.Fatalf("SetUserRoles failed: %v", err)
	}
	if !u.HasRole(stream.RoleTech) {
		t.Errorf("roles = %v", u.Roles)
	}
	if _, err := e.SetUserRoles(ctx, streamer, "s1", nil); !errors.Is(err, stream.ErrPermissionDenied) {
		t.Errorf("non-admin SetUserRoles: got %v, want ErrPermissionDenied", err)
	}

	users, err := e.ListUsers(ctx, p)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("got %d users, want 2", len(users))
	}

	if _, err := e.Principal(ctx, "ghost"); !errors.Is(err, stream.ErrNotFound) {
		t.Errorf("unknown principal: got %v, want ErrNotFound", err)
	}
	if p, err := e.Principal(ctx, ""); err != nil || p.Authenticated() {
		t.Errorf("empty principal = %+v, %v", p, err)
	}
}
