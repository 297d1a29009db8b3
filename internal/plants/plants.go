package plants

import (
	"fmt"
	"time"
)

// EventType is the kind of care logged against a plant.
type EventType int

const (
	Water     EventType = 1
	Fertilize EventType = 2
)

// Valid reports whether t is one of the known care types.
func (t EventType) Valid() bool {
	return t == Water || t == Fertilize
}

func (t EventType) String() string {
	switch t {
	case Water:
		return "water"
	case Fertilize:
		return "fertilize"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// ParseEventType maps the textual form used in URLs and forms ("water",
// "fertilize") to an EventType.
func ParseEventType(s string) (EventType, error) {
	switch s {
	case "water":
		return Water, nil
	case "fertilize":
		return Fertilize, nil
	}
	return 0, fmt.Errorf("plants: unknown event type %q", s)
}

// Represents a user owning plants. Colour is a CSS colour used for the avatar.
type User struct {
	Id     int64  `json:"id"`
	Name   string `json:"name"`
	Colour string `json:"colour"`
}

// Represents a care event logged against a plant.
type Event struct {
	Id        int64     `json:"id"`
	PlantId   int64     `json:"plantId"`
	Type      EventType `json:"typeId"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// Represents a plant with its care state. Nil pointers stand for absent
// values: a plant never watered has neither LastWaterEvent nor NextWaterDue.
type Plant struct {
	Id                  int64      `json:"id"`
	UserId              int64      `json:"userId,omitempty"`
	Name                string     `json:"name"`
	LastWaterEvent      *Event     `json:"lastWaterEvent"`
	NextWaterDue        *time.Time `json:"nextWaterDue"`
	LastFertilizerEvent *Event     `json:"lastFertilizerEvent"`
	NextFertilizerDue   *time.Time `json:"nextFertilizerDue"`
}

// NeedsWater reports whether the plant is due or overdue for watering at now.
func (p Plant) NeedsWater(now time.Time) bool {
	return IsOverdue(p.NextWaterDue, now)
}

// NeedsFertilizer reports whether the plant is due or overdue for fertilizer
// at now.
func (p Plant) NeedsFertilizer(now time.Time) bool {
	return IsOverdue(p.NextFertilizerDue, now)
}
