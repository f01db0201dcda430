package httpapi

import (
	"time"

	"github.com/piquetdestream/piquet/internal/stream"
)

type userJSON struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

type timeSlotJSON struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
}

type techAppointmentJSON struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"startTime"`
	Status    string    `json:"status"`
	TechID    string    `json:"techId"`
	Tech      *userJSON `json:"tech,omitempty"`
}

type streamRequestJSON struct {
	ID              int64                `json:"id"`
	StreamerID      string               `json:"streamerId"`
	Streamer        *userJSON            `json:"streamer,omitempty"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Category        string               `json:"category"`
	Guests          []string             `json:"guests"`
	TimeSlots       []timeSlotJSON       `json:"streamRequestTimeSlots"`
	TechAppointment *techAppointmentJSON `json:"techAppointment,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

func toUserJSON(u *stream.User) *userJSON {
	if u == nil {
		return nil
	}
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	return &userJSON{ID: u.ID, Name: u.Name, Roles: roles}
}

func toAppointmentJSON(a *stream.TechAppointment) *techAppointmentJSON {
	if a == nil {
		return nil
	}
	return &techAppointmentJSON{
		ID:        a.ID,
		StartTime: a.StartTime,
		Status:    string(a.Status),
		TechID:    a.TechUserID,
		Tech:      toUserJSON(a.Tech),
	}
}

func toRequestJSON(r *stream.StreamRequest) streamRequestJSON {
	out := streamRequestJSON{
		ID:              r.ID,
		StreamerID:      r.StreamerID,
		Streamer:        toUserJSON(r.Streamer),
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		Guests:          r.Guests,
		TimeSlots:       make([]timeSlotJSON, len(r.TimeSlots)),
		TechAppointment: toAppointmentJSON(r.TechAppointment),
		CreatedAt:       r.CreatedAt,
	}
	if out.Guests == nil {
		out.Guests = []string{}
	}
	for i, s := range r.TimeSlots {
		out.TimeSlots[i] = timeSlotJSON{ID: s.ID, StartTime: s.Start, EndTime: s.End, Status: string(s.Status)}
	}
	return out
}

func toRequestsJSON(rs []*stream.StreamRequest) []streamRequestJSON {
	out := make([]streamRequestJSON, len(rs))
	for i, r := range rs {
		out[i] = toRequestJSON(r)
	}
	return out
}
