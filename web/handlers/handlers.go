package handlers

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mgmu/hortus-tracker/internal/errs"
	"github.com/mgmu/hortus-tracker/internal/plants"
	"github.com/mgmu/hortus-tracker/web/services"
	"go.uber.org/zap"
)

var (
	IndexRoute       = "/{$}"
	NewUserRoute     = "/users/new/{$}"
	UserRoute        = "/users/{userId}/{$}"
	NewPlantRoute    = "/users/{userId}/plants/new/{$}"
	PlantRoute       = "/users/{userId}/plants/{plantId}/{$}"
	RenamePlantRoute = "/users/{userId}/plants/{plantId}/rename/{$}"
	CareRoute        = "/users/{userId}/plants/{plantId}/care/{action}/{$}"
	notAllowed       = "Method not allowed"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Encapsulates environment data for URL handlers
type HandlerEnv struct {
	templates *template.Template
	users     *services.UsersService
	plants    *services.PlantsService
	events    *services.EventsService
	logger    *zap.Logger
	now       func() time.Time
	navBar    navBarLinks
}

func New(
	users *services.UsersService,
	plantsService *services.PlantsService,
	events *services.EventsService,
	logger *zap.Logger,
) (*HandlerEnv, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"initial":  initial,
		"userLink": userLink,
	}).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}
	navBar := navBarLinks{Home: "/", AddUser: "/users/new/"}
	return &HandlerEnv{
		templates: t,
		users:     users,
		plants:    plantsService,
		events:    events,
		logger:    logger,
		now:       time.Now,
		navBar:    navBar,
	}, nil
}

// Handler returns every page and form action, with a not-found page for
// anything else.
func (e *HandlerEnv) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(IndexRoute, e.IndexHandler())
	mux.HandleFunc(NewUserRoute, e.NewUserHandler())
	mux.HandleFunc(UserRoute, e.UserHandler())
	mux.HandleFunc(NewPlantRoute, e.NewPlantHandler())
	mux.HandleFunc(PlantRoute, e.PlantHandler())
	mux.HandleFunc(RenamePlantRoute, e.RenamePlantHandler())
	mux.HandleFunc(CareRoute, e.CareHandler())
	mux.HandleFunc("/", e.NotFoundHandler())
	return mux
}

// Encapsulates the nav bar links
type navBarLinks struct {
	Home    string
	AddUser string
}

type indexPage struct {
	Users  []plants.User
	Error  string
	NavBar navBarLinks
}

type userFormPage struct {
	Name   string
	Error  string
	NavBar navBarLinks
}

type sortOption struct {
	Key      plants.SortKey
	Label    string
	Link     string
	Selected bool
}

// plantCard is a plant with its care state rendered for display.
type plantCard struct {
	plants.Plant
	Link            string
	LastWatered     string
	NextWater       string
	LastFertilized  string
	NextFertilizer  string
	NeedsWater      bool
	NeedsFertilizer bool
}

type userPage struct {
	User        plants.User
	Plants      []plantCard
	PlantCount  int
	Query       string
	SortOptions []sortOption
	Error       string
	NavBar      navBarLinks
}

type plantFormPage struct {
	User   plants.User
	Name   string
	Error  string
	NavBar navBarLinks
}

type historyEntry struct {
	Label string
	Note  string
	Type  string
}

type plantPage struct {
	User         plants.User
	Plant        plantCard
	History      []historyEntry
	HistoryError string
	Error        string
	NavBar       navBarLinks
}

type errorPage struct {
	Title   string
	Message string
	NavBar  navBarLinks
}

var sortLabels = map[plants.SortKey]string{
	plants.SortByName:         "Name",
	plants.SortByLastWatered:  "Last watered",
	plants.SortByNextWaterDue: "Next water due",
}

// Returns a handler for the "/" URL.
// The request method should be GET. Lists every user; when the list cannot
// be fetched the page shows an error banner instead.
func (e *HandlerEnv) IndexHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, notAllowed, http.StatusMethodNotAllowed)
			return
		}
		page := indexPage{NavBar: e.navBar}
		users, err := e.users.List(r.Context())
		if err != nil {
			e.logger.Warn("listing users failed", zap.Error(err))
			page.Error = errs.UserMessage(err)
		}
		page.Users = users
		e.render(w, http.StatusOK, "index.gohtml", page)
	}
}

// Returns a handler for the "/users/new/" URL.
// GET renders the form, POST creates the user and redirects to its page.
func (e *HandlerEnv) NewUserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			e.render(w, http.StatusOK, "newUser.gohtml", userFormPage{NavBar: e.navBar})
		case http.MethodPost:
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			name := r.PostForm.Get("name")
			user, err := e.users.Create(r.Context(), name)
			if err != nil {
				page := userFormPage{Name: name, Error: errs.UserMessage(err), NavBar: e.navBar}
				e.render(w, failureStatus(err), "newUser.gohtml", page)
				return
			}
			http.Redirect(w, r, userLink(user.Id), http.StatusSeeOther)
		default:
			http.Error(w, notAllowed, http.StatusMethodNotAllowed)
		}
	}
}

// Returns a handler for the "/users/{userId}/" URL.
// The request method should be GET. Renders the profile and the plant list,
// filtered by the "q" query parameter and ordered by "sort". When the plant
// list cannot be fetched the profile is still rendered with an inline alert.
func (e *HandlerEnv) UserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, notAllowed, http.StatusMethodNotAllowed)
			return
		}
		user, found := e.user(w, r)
		if !found {
			return
		}

		query := r.URL.Query().Get("q")
		key, err := plants.ParseSortKey(r.URL.Query().Get("sort"))
		if err != nil {
			key = plants.SortByName
		}
		page := userPage{User: user, Query: query, NavBar: e.navBar}
		for _, k := range plants.SortKeys {
			page.SortOptions = append(page.SortOptions, sortOption{
				Key:      k,
				Label:    sortLabels[k],
				Link:     sortLink(user.Id, query, k),
				Selected: k == key,
			})
		}

		ps, err := e.plants.List(r.Context(), user.Id)
		if err != nil {
			e.logger.Warn("listing plants failed", zap.Int64("user_id", user.Id), zap.Error(err))
			page.Error = errs.UserMessage(err)
			e.render(w, http.StatusOK, "user.gohtml", page)
			return
		}
		page.PlantCount = len(ps)
		now := e.now()
		for _, p := range plants.Arrange(ps, query, key) {
			page.Plants = append(page.Plants, e.card(user.Id, p, now))
		}
		e.render(w, http.StatusOK, "user.gohtml", page)
	}
}

// Returns a handler for the "/users/{userId}/plants/new/" URL.
// GET renders the form, POST creates the plant and redirects to its page.
func (e *HandlerEnv) NewPlantHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			http.Error(w, notAllowed, http.StatusMethodNotAllowed)
			return
		}
		user, found := e.user(w, r)
		if !found {
			return
		}
		page := plantFormPage{User: user, NavBar: e.navBar}

		if r.Method == http.MethodGet {
			e.render(w, http.StatusOK, "newPlant.gohtml", page)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		page.Name = r.PostForm.Get("name")
		plant, err := e.plants.Create(r.Context(), user.Id, page.Name)
		if err != nil {
			page.Error = errs.UserMessage(err)
			e.render(w, failureStatus(err), "newPlant.gohtml", page)
			return
		}
		http.Redirect(w, r, plantLink(user.Id, plant.Id), http.StatusSeeOther)
	}
}

// Returns a handler for the "/users/{userId}/plants/{plantId}/" URL.
// The request method should be GET. Renders the care state of the plant and
// its history, newest first.
func (e *HandlerEnv) PlantHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, notAllowed, http.StatusMethodNotAllowed)
			return
		}
		userId, plantId, valid := e.plantIds(w, r)
		if !valid {
			return
		}
		e.renderPlant(w, r, userId, plantId, http.StatusOK, "")
	}
}

// Returns a handler for the "/users/{userId}/plants/{plantId}/rename/" URL.
// The request method should be POST. Renames the plant and redirects to its
// page; a rejected name re-renders the page with the reason.
func (e *HandlerEnv) RenamePlantHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, notAllowed, http.StatusMethodNotAllowed)
			return
		}
		userId, plantId, valid := e.plantIds(w, r)
		if !valid {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, err := e.plants.Rename(r.Context(), userId, plantId, r.PostForm.Get("name"))
		if err != nil {
			if errs.IsNotFound(err) {
				e.notFound(w, "Plant not found", "This plant does not exist.")
				return
			}
			e.renderPlant(w, r, userId, plantId, failureStatus(err), errs.UserMessage(err))
			return
		}
		http.Redirect(w, r, plantLink(userId, plantId), http.StatusSeeOther)
	}
}

// Returns a handler for the "/users/{userId}/plants/{plantId}/care/{action}/"
// URL, where action is "water" or "fertilize".
// The request method should be POST. Records the care event and redirects to
// the user page when the form carries back=user, to the plant page otherwise,
// so that the next page load fetches the updated state.
func (e *HandlerEnv) CareHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, notAllowed, http.StatusMethodNotAllowed)
			return
		}
		userId, plantId, valid := e.plantIds(w, r)
		if !valid {
			return
		}
		t, err := plants.ParseEventType(r.PathValue("action"))
		if err != nil {
			e.notFound(w, "Page not found", "Unknown care action.")
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if _, err := e.events.Create(r.Context(), userId, plantId, t, ""); err != nil {
			e.logger.Warn("recording care failed",
				zap.Int64("plant_id", plantId),
				zap.Stringer("action", t),
				zap.Error(err),
			)
			if errs.IsNotFound(err) {
				e.notFound(w, "Plant not found", "This plant does not exist.")
				return
			}
			e.render(w, failureStatus(err), "error.gohtml", errorPage{
				Title:   "Could not record care",
				Message: errs.UserMessage(err),
				NavBar:  e.navBar,
			})
			return
		}

		target := plantLink(userId, plantId)
		if r.Form.Get("back") == "user" {
			target = userLink(userId)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// Returns a handler rendering the not-found page for any unknown URL.
func (e *HandlerEnv) NotFoundHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		e.notFound(w, "Page not found", "The page you are looking for does not exist.")
	}
}

// renderPlant fetches and renders the plant page. formErr is shown above the
// rename form.
func (e *HandlerEnv) renderPlant(w http.ResponseWriter, r *http.Request, userId, plantId int64, status int, formErr string) {
	ctx := r.Context()
	user, err := e.users.Get(ctx, userId)
	if err != nil {
		e.failPage(w, err, "User not found", "This user does not exist.")
		return
	}
	plant, err := e.plants.Get(ctx, userId, plantId)
	if err != nil {
		e.failPage(w, err, "Plant not found", "This plant does not exist.")
		return
	}

	now := e.now()
	page := plantPage{
		User:   user,
		Plant:  e.card(userId, plant, now),
		Error:  formErr,
		NavBar: e.navBar,
	}
	history, err := e.history(ctx, userId, plantId, now)
	if err != nil {
		e.logger.Warn("loading plant history failed", zap.Int64("plant_id", plantId), zap.Error(err))
		page.HistoryError = errs.UserMessage(err)
	}
	page.History = history
	e.render(w, status, "plant.gohtml", page)
}

func (e *HandlerEnv) history(ctx context.Context, userId, plantId int64, now time.Time) ([]historyEntry, error) {
	events, err := e.events.List(ctx, userId, plantId)
	if err != nil {
		return nil, err
	}
	events = slices.Clone(events)
	slices.SortStableFunc(events, func(a, b plants.Event) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return int(b.Id - a.Id)
	})
	entries := make([]historyEntry, len(events))
	for i, ev := range events {
		entries[i] = historyEntry{Label: eventLabel(ev, now), Note: ev.Note, Type: ev.Type.String()}
	}
	return entries, nil
}

func (e *HandlerEnv) card(userId int64, p plants.Plant, now time.Time) plantCard {
	return plantCard{
		Plant:           p,
		Link:            plantLink(userId, p.Id),
		LastWatered:     lastWateredLabel(p.LastWaterEvent, now),
		NextWater:       dueLabel(p.NextWaterDue, now),
		LastFertilized:  lastFertilizedLabel(p.LastFertilizerEvent, now),
		NextFertilizer:  dueLabel(p.NextFertilizerDue, now),
		NeedsWater:      p.NeedsWater(now),
		NeedsFertilizer: p.NeedsFertilizer(now),
	}
}

// user fetches the user named by the path, rendering a failure page when it
// cannot.
func (e *HandlerEnv) user(w http.ResponseWriter, r *http.Request) (plants.User, bool) {
	id, err := parseId(r.PathValue("userId"), "user")
	if err != nil {
		e.notFound(w, "User not found", errs.UserMessage(err))
		return plants.User{}, false
	}
	user, err := e.users.Get(r.Context(), id)
	if err != nil {
		e.failPage(w, err, "User not found", "This user does not exist.")
		return plants.User{}, false
	}
	return user, true
}

func (e *HandlerEnv) plantIds(w http.ResponseWriter, r *http.Request) (userId, plantId int64, valid bool) {
	userId, err := parseId(r.PathValue("userId"), "user")
	if err != nil {
		e.notFound(w, "User not found", errs.UserMessage(err))
		return 0, 0, false
	}
	plantId, err = parseId(r.PathValue("plantId"), "plant")
	if err != nil {
		e.notFound(w, "Plant not found", errs.UserMessage(err))
		return 0, 0, false
	}
	return userId, plantId, true
}

// failPage renders the page for a failed fetch of the main resource: the
// not-found page for a 404, an error page otherwise.
func (e *HandlerEnv) failPage(w http.ResponseWriter, err error, title, notFoundMessage string) {
	if errs.IsNotFound(err) {
		e.notFound(w, title, notFoundMessage)
		return
	}
	e.logger.Warn("loading page failed", zap.Error(err))
	e.render(w, failureStatus(err), "error.gohtml", errorPage{
		Title:   "Something went wrong",
		Message: errs.UserMessage(err),
		NavBar:  e.navBar,
	})
}

func (e *HandlerEnv) notFound(w http.ResponseWriter, title, message string) {
	e.render(w, http.StatusNotFound, "notFound.gohtml", errorPage{title, message, e.navBar})
}

func (e *HandlerEnv) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := e.templates.ExecuteTemplate(w, name, data); err != nil {
		e.logger.Error("rendering template failed", zap.String("template", name), zap.Error(err))
	}
}

// failureStatus maps a service error to the status of the page reporting it.
func failureStatus(err error) int {
	var domainErr *errs.DomainError
	switch {
	case errors.As(err, &domainErr):
		return http.StatusBadRequest
	case errs.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func parseId(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Domain("Invalid %s id %q.", what, s)
	}
	return id, nil
}

func userLink(id int64) string {
	return fmt.Sprintf("/users/%d/", id)
}

func plantLink(userId, plantId int64) string {
	return fmt.Sprintf("/users/%d/plants/%d/", userId, plantId)
}

// initial returns the upper-cased first letter of name, for avatars.
func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// sortLink returns the user page URL ordered by key, keeping the filter.
func sortLink(userId int64, query string, key plants.SortKey) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	v.Set("sort", string(key))
	return userLink(userId) + "?" + v.Encode()
}
