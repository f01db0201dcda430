// Package db provides the SQLite and PostgreSQL implementations of
// stream.Repository.
package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/piquetdestream/piquet/internal/stream"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and locates the store.
type Options struct {
	Driver string // "sqlite" (default) or "postgres"
	Path   string // SQLite database file
	DSN    string // PostgreSQL connection string
}

// Open opens the configured store and runs its migrations.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (stream.Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch opts.Driver {
	case "", DriverSQLite:
		s, err := NewSQLite(ctx, opts.Path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		p, err := NewPostgres(ctx, opts.DSN, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

// timeLayout is the UTC text layout used by the SQLite store.
const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	formats := []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

func rolesToStrings(roles []stream.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func stringsToRoles(names []string) []stream.Role {
	out := make([]stream.Role, 0, len(names))
	for _, n := range names {
		out = append(out, stream.Role(n))
	}
	return out
}

// orderedChanges returns the status changes with every non-APPROVED write
// first, so the single-approval index never sees two approved rows mid-way.
func orderedChanges(changes map[int64]stream.TimeSlotStatus) []slotChange {
	out := make([]slotChange, 0, len(changes))
	for id, st := range changes {
		out = append(out, slotChange{id: id, status: st})
	}
	sort.Slice(out, func(i, j int) bool {
		ai := out[i].status == stream.SlotApproved
		aj := out[j].status == stream.SlotApproved
		if ai != aj {
			return !ai
		}
		return out[i].id < out[j].id
	})
	return out
}

type slotChange struct {
	id     int64
	status stream.TimeSlotStatus
}

// groupSlots attaches slots to their requests, keeping the order in which
// requests first appear.
func groupSlots(slots []*stream.TimeSlot) ([]int64, map[int64][]*stream.TimeSlot) {
	var order []int64
	byRequest := make(map[int64][]*stream.TimeSlot)
	for _, s := range slots {
		if _, ok := byRequest[s.StreamRequestID]; !ok {
			order = append(order, s.StreamRequestID)
		}
		byRequest[s.StreamRequestID] = append(byRequest[s.StreamRequestID], s)
	}
	return order, byRequest
}
