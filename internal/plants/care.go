package plants

import "time"

// FertilizerInterval is the fixed time between two fertilizer applications.
const FertilizerInterval = 30 * 24 * time.Hour

// Latest returns a copy of the most recent event of type t, or nil if events
// holds none. Events with equal timestamps resolve to the higher identifier.
func Latest(events []Event, t EventType) *Event {
	var latest *Event
	for i := range events {
		e := events[i]
		if e.Type != t {
			continue
		}
		if latest == nil || later(e, *latest) {
			latest = &e
		}
	}
	return latest
}

func later(a, b Event) bool {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c > 0
	}
	return a.Id > b.Id
}

// NextFertilizerDue returns the time fertilizer is due after last, or nil when
// the plant was never fertilized.
func NextFertilizerDue(last *Event) *time.Time {
	if last == nil {
		return nil
	}
	due := last.Timestamp.Add(FertilizerInterval)
	return &due
}

// WithCareHistory returns a copy of p whose fertilizer state is derived from
// the plant's full event history. Watering due dates are owned by the backend
// and are left untouched; a missing LastWaterEvent is filled from the history.
func WithCareHistory(p Plant, events []Event) Plant {
	p.LastFertilizerEvent = Latest(events, Fertilize)
	p.NextFertilizerDue = NextFertilizerDue(p.LastFertilizerEvent)
	if p.LastWaterEvent == nil {
		p.LastWaterEvent = Latest(events, Water)
	}
	return p
}

// IsOverdue reports whether a care action is needed: the due date is unknown
// (never done) or already passed.
func IsOverdue(due *time.Time, now time.Time) bool {
	return due == nil || due.Before(now)
}
