package notify

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-booking/internal/scheduling"
)

// Fetcher supplies the current appointment set. The repository's list
// operation satisfies it through FetchFunc; a push source can feed the
// same detector by treating each push as a one-element fetch.
type Fetcher interface {
	Fetch(ctx context.Context) ([]scheduling.AppointmentDetail, error)
}

// FetchFunc adapts a plain function to the Fetcher interface.
type FetchFunc func(ctx context.Context) ([]scheduling.AppointmentDetail, error)

func (f FetchFunc) Fetch(ctx context.Context) ([]scheduling.AppointmentDetail, error) {
	return f(ctx)
}

// Observation is the outcome of one successful poll cycle. Ranked is the
// full fetched set in priority order, reusable for display without a
// second fetch. Event is nil on the seeding cycle and on cycles that
// observed no additions.
type Observation struct {
	Ranked []scheduling.AppointmentDetail
	Event  *Event
}

// Detector re-reads the appointment set and diffs identifiers against the
// last successful observation. It owns its snapshot exclusively and is
// not safe for concurrent use; the poller drives it from one goroutine.
type Detector struct {
	fetch  Fetcher
	seen   map[uuid.UUID]struct{}
	primed bool
	now    func() time.Time
}

func NewDetector(fetch Fetcher) *Detector {
	return &Detector{
		fetch: fetch,
		seen:  make(map[uuid.UUID]struct{}),
		now:   time.Now,
	}
}

// WithClock overrides the detector clock. Intended for tests.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	if now != nil {
		d.now = now
	}
	return d
}

// Cycle runs one fetch → diff → snapshot-replace unit. On fetch failure
// the snapshot stays untouched, so additions that arrived during the
// failed cycle are reported exactly once by the next successful one.
//
// The very first successful cycle only seeds the snapshot and never
// emits, preventing a spurious burst at start-up.
func (d *Detector) Cycle(ctx context.Context) (*Observation, error) {
	current, err := d.fetch.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch appointments: %w", err)
	}

	currentIDs := make(map[uuid.UUID]struct{}, len(current))
	var added []uuid.UUID
	for _, appt := range current {
		currentIDs[appt.ID] = struct{}{}
		if _, ok := d.seen[appt.ID]; !ok {
			added = append(added, appt.ID)
		}
	}

	obs := &Observation{Ranked: scheduling.RankDetails(current)}

	if d.primed && len(added) > 0 {
		slices.SortFunc(added, func(a, b uuid.UUID) int {
			return strings.Compare(a.String(), b.String())
		})
		obs.Event = &Event{
			AddedIDs:   added,
			Count:      len(added),
			ObservedAt: d.now(),
		}
	}

	d.seen = currentIDs
	d.primed = true

	return obs, nil
}
