package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mgmu/hortus-tracker/api/database"
	"github.com/mgmu/hortus-tracker/internal/messages"
	"github.com/mgmu/hortus-tracker/internal/plants"
	"go.uber.org/zap"
)

var (
	UsersRoute  = "/users"
	UserRoute   = "/users/{userId}"
	PlantsRoute = "/users/{userId}/plants"
	PlantRoute  = "/users/{userId}/plants/{plantId}"
	EventsRoute = "/users/{userId}/plants/{plantId}/events"

	nameMaxLen   = 255
	maxBodyBytes = int64(1 << 20)
)

// Days between two waterings and two fertilizer applications.
const (
	waterIntervalDays      = 7
	fertilizerIntervalDays = 30
)

// Material palette user avatars are drawn from.
var colours = []string{
	"#F44336", "#E91E63", "#9C27B0", "#673AB7",
	"#3F51B5", "#2196F3", "#03A9F4", "#00BCD4",
	"#009688", "#4CAF50", "#8BC34A", "#CDDC39",
	"#FFEB3B", "#FFC107", "#FF9800", "#FF5722",
}

func randomColour() string {
	return colours[rand.IntN(len(colours))]
}

// Encapsulates environment data for API handlers
type HandlerEnv struct {
	db     database.Database
	logger *zap.Logger
	now    func() time.Time
	colour func() string
}

func New(db database.Database, logger *zap.Logger) *HandlerEnv {
	return &HandlerEnv{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		colour: randomColour,
	}
}

// Handler returns the complete API: every route, a JSON 404 for anything
// else, and CORS headers.
func (e *HandlerEnv) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(UsersRoute, e.UsersHandler())
	mux.HandleFunc(UserRoute, e.UserHandler())
	mux.HandleFunc(PlantsRoute, e.PlantsHandler())
	mux.HandleFunc(PlantRoute, e.PlantHandler())
	mux.HandleFunc(EventsRoute, e.EventsHandler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { notFound(w) })
	return Cors(mux)
}

// Returns a handler for the "/users" URL.
// GET lists every user, POST creates one from a {"name"} body and gives it a
// random avatar colour.
func (e *HandlerEnv) UsersHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			users, err := e.db.Users(r.Context())
			if err != nil {
				e.serverError(w, r, "Failed to get users", err)
				return
			}
			ok(w, users)
		case http.MethodPost:
			var req messages.CreateUserRequest
			if !decodeBody(w, r, &req) {
				return
			}
			name, err := sanitizeName(req.Name)
			if err != nil {
				fail(w, http.StatusBadRequest, err.Error())
				return
			}
			user, err := e.db.AddUser(r.Context(), name, e.colour())
			if err != nil {
				e.serverError(w, r, "Failed to create user", err)
				return
			}
			created(w, user)
		default:
			notAllowed(w)
		}
	}
}

// Returns a handler for the "/users/{userId}" URL.
func (e *HandlerEnv) UserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			notAllowed(w)
			return
		}
		user, found := e.user(w, r)
		if !found {
			return
		}
		ok(w, user)
	}
}

// Returns a handler for the "/users/{userId}/plants" URL.
// GET lists the plants of the user with their care state, POST adds a plant
// from a {"name"} body. Unknown users are 404.
func (e *HandlerEnv) PlantsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			notAllowed(w)
			return
		}
		user, found := e.user(w, r)
		if !found {
			return
		}

		if r.Method == http.MethodGet {
			ps, err := e.db.UserPlants(r.Context(), user.Id)
			if err != nil {
				e.serverError(w, r, "Failed to get plants", err)
				return
			}
			for i := range ps {
				ps[i] = e.withCare(r.Context(), ps[i])
			}
			ok(w, ps)
			return
		}

		var req messages.CreatePlantRequest
		if !decodeBody(w, r, &req) {
			return
		}
		name, err := sanitizeName(req.Name)
		if err != nil {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		plant, err := e.db.AddPlant(r.Context(), user.Id, name)
		if err != nil {
			e.serverError(w, r, "Failed to create plant", err)
			return
		}
		created(w, plant)
	}
}

// Returns a handler for the "/users/{userId}/plants/{plantId}" URL.
// GET returns the plant with its care state, PUT renames it from a {"name"}
// body. A plant belonging to another user is 404.
func (e *HandlerEnv) PlantHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			plant, found := e.plant(w, r)
			if !found {
				return
			}
			ok(w, e.withCare(r.Context(), plant))
		case http.MethodPut:
			userId, plantId, valid := plantIds(r)
			if !valid {
				notFound(w)
				return
			}
			var req messages.UpdatePlantRequest
			if !decodeBody(w, r, &req) {
				return
			}
			name, err := sanitizeName(req.Name)
			if err != nil {
				fail(w, http.StatusBadRequest, err.Error())
				return
			}
			plant, err := e.db.RenamePlant(r.Context(), userId, plantId, name)
			if errors.Is(err, database.ErrNotFound) {
				notFound(w)
				return
			}
			if err != nil {
				e.serverError(w, r, "Failed to update plant", err)
				return
			}
			ok(w, e.withCare(r.Context(), plant))
		default:
			notAllowed(w)
		}
	}
}

// Returns a handler for the "/users/{userId}/plants/{plantId}/events" URL.
// GET lists the care history of the plant, newest first. POST records an
// event from an {"eventType", "note"} body, stamped with the server clock.
func (e *HandlerEnv) EventsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			notAllowed(w)
			return
		}
		plant, found := e.plant(w, r)
		if !found {
			return
		}

		if r.Method == http.MethodGet {
			events, err := e.db.PlantEvents(r.Context(), plant.Id)
			if err != nil {
				e.serverError(w, r, "Failed to get events", err)
				return
			}
			ok(w, events)
			return
		}

		var req messages.CreateEventRequest
		if !decodeBody(w, r, &req) {
			return
		}
		t := plants.EventType(req.EventType)
		if !t.Valid() {
			fail(w, http.StatusBadRequest, "Invalid event type")
			return
		}
		event, err := e.db.AddEvent(r.Context(), plant.Id, t, req.Note, e.now())
		if err != nil {
			e.serverError(w, r, "Failed to create event", err)
			return
		}
		created(w, event)
	}
}

// withCare fills the care state of p from its latest events. When they
// cannot be loaded p is returned without care state.
func (e *HandlerEnv) withCare(ctx context.Context, p plants.Plant) plants.Plant {
	latest, err := e.db.LatestEvents(ctx, p.Id)
	if err != nil {
		e.logger.Warn("loading latest events failed", zap.Int64("plant_id", p.Id), zap.Error(err))
		return p
	}
	for _, ev := range latest {
		switch ev.Type {
		case plants.Water:
			due := ev.Timestamp.AddDate(0, 0, waterIntervalDays)
			p.LastWaterEvent, p.NextWaterDue = &ev, &due
		case plants.Fertilize:
			due := ev.Timestamp.AddDate(0, 0, fertilizerIntervalDays)
			p.LastFertilizerEvent, p.NextFertilizerDue = &ev, &due
		}
	}
	return p
}

// user loads the user named by the path, writing a 404 when it does not
// exist.
func (e *HandlerEnv) user(w http.ResponseWriter, r *http.Request) (plants.User, bool) {
	id, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		notFound(w)
		return plants.User{}, false
	}
	user, err := e.db.User(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		notFound(w)
		return plants.User{}, false
	}
	if err != nil {
		e.serverError(w, r, "Failed to get user", err)
		return plants.User{}, false
	}
	return user, true
}

// plant loads the plant named by the path, scoped to the user in the path.
func (e *HandlerEnv) plant(w http.ResponseWriter, r *http.Request) (plants.Plant, bool) {
	userId, plantId, valid := plantIds(r)
	if !valid {
		notFound(w)
		return plants.Plant{}, false
	}
	plant, err := e.db.Plant(r.Context(), userId, plantId)
	if errors.Is(err, database.ErrNotFound) {
		notFound(w)
		return plants.Plant{}, false
	}
	if err != nil {
		e.serverError(w, r, "Failed to get plant", err)
		return plants.Plant{}, false
	}
	return plant, true
}

func plantIds(r *http.Request) (userId, plantId int64, valid bool) {
	userId, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	plantId, err = strconv.ParseInt(r.PathValue("plantId"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return userId, plantId, true
}

func (e *HandlerEnv) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.logger.Error(msg,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	fail(w, http.StatusInternalServerError, msg)
}

// decodeBody reads a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		fail(w, http.StatusBadRequest, "Failed to parse request body")
		return false
	}
	return true
}

// Checks that name is not empty after trim, not longer than 255
// bytes and valid utf8. The string returned is the trimmed version of name.
func sanitizeName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if len(s) == 0 {
		return "", errors.New("Name is required")
	}
	if len(s) > nameMaxLen {
		return "", errors.New("Name length is greater than 255")
	}
	if !utf8.ValidString(s) {
		return "", errors.New("Name is not UTF-8")
	}
	return s, nil
}
