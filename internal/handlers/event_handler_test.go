package handlers

import (
	gocontext "context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gatherly-app/backend/internal/feed"
	"github.com/gatherly-app/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeEventRepository struct {
	events map[uint]*models.Event
	nextID uint
}

func newFakeEventRepository() *fakeEventRepository {
	return &fakeEventRepository{events: make(map[uint]*models.Event), nextID: 1}
}

func (r *fakeEventRepository) CreateEvent(event *models.Event) error {
	event.ID = r.nextID
	r.nextID++
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeEventRepository) GetEventByID(id uint) (*models.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeEventRepository) GetEventsByCreatorID(creatorID uint) ([]models.Event, error) {
	var out []models.Event
	for _, e := range r.events {
		if e.CreatorID == creatorID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEventRepository) GetEventsForUser(userID uint) ([]models.Event, error) {
	return r.GetEventsByCreatorID(userID)
}

func (r *fakeEventRepository) UpdateEvent(event *models.Event) error {
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeEventRepository) DeleteEvent(id uint) error {
	delete(r.events, id)
	return nil
}

type fakeInviteRepository struct {
	invites map[uint]*models.Invite
	nextID  uint
}

func newFakeInviteRepository() *fakeInviteRepository {
	return &fakeInviteRepository{invites: make(map[uint]*models.Invite), nextID: 1}
}

func (r *fakeInviteRepository) CreateInvite(invite *models.Invite) error {
	invite.ID = r.nextID
	r.nextID++
	copied := *invite
	r.invites[invite.ID] = &copied
	return nil
}

func (r *fakeInviteRepository) GetInviteByID(id uint) (*models.Invite, error) {
	invite, ok := r.invites[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *invite
	return &copied, nil
}

func (r *fakeInviteRepository) GetInvitesByEventID(eventID uint) ([]models.Invite, error) {
	var out []models.Invite
	for _, i := range r.invites {
		if i.EventID == eventID {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (r *fakeInviteRepository) GetInvitesForUser(userID uint) ([]models.Invite, error) {
	var out []models.Invite
	for _, i := range r.invites {
		if i.UserID == userID {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (r *fakeInviteRepository) HasInvite(eventID, userID uint) (bool, error) {
	for _, i := range r.invites {
		if i.EventID == eventID && i.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInviteRepository) UpdateInvite(invite *models.Invite) error {
	copied := *invite
	r.invites[invite.ID] = &copied
	return nil
}

func (r *fakeInviteRepository) DeleteInvite(id uint) error {
	delete(r.invites, id)
	return nil
}

type fakeUserRepository struct {
	users map[uint]*models.User
}

func (r *fakeUserRepository) CreateUser(user *models.User) error { return nil }

func (r *fakeUserRepository) GetUserByID(id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepository) GetUserByEmail(string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepository) GetUserByFirebaseUID(string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepository) UpdateUser(*models.User) error { return nil }

func (r *fakeUserRepository) DeleteUser(uint) error { return nil }

func (r *fakeUserRepository) SearchUsers(string) ([]models.User, error) { return nil, nil }

// fakeActivityRepository is mutex-guarded because handlers record
// activities from their own goroutine.
type fakeActivityRepository struct {
	mu         sync.Mutex
	activities []models.Activity
}

func (r *fakeActivityRepository) RecordActivity(_ gocontext.Context, activity *models.Activity) error {
	r.mu.Lock()
	r.activities = append(r.activities, *activity)
	r.mu.Unlock()
	return nil
}

func (r *fakeActivityRepository) GetActivitiesByUserID(_ gocontext.Context, userID uint, _, _ int64) ([]models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Activity
	for _, a := range r.activities {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeActivityRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.activities)
}

type eventHandlerFixture struct {
	handler    *EventHandler
	events     *fakeEventRepository
	invites    *fakeInviteRepository
	users      *fakeUserRepository
	notifs     *fakeNotificationRepository
	activities *fakeActivityRepository
	hub        *feed.Hub
}

func newEventHandlerFixture() *eventHandlerFixture {
	f := &eventHandlerFixture{
		events:  newFakeEventRepository(),
		invites: newFakeInviteRepository(),
		users: &fakeUserRepository{users: map[uint]*models.User{
			1: {ID: 1, Name: "Alice", Email: "alice@example.com"},
			2: {ID: 2, Name: "Bob", Email: "bob@example.com"},
		}},
		notifs:     &fakeNotificationRepository{},
		activities: &fakeActivityRepository{},
		hub:        feed.NewHub(),
	}
	f.handler = NewEventHandler(f.events, f.invites, f.users, f.notifs, f.activities, f.hub)
	return f
}

func (f *eventHandlerFixture) seedEvent(creatorID uint, title string) *models.Event {
	event := &models.Event{CreatorID: creatorID, Title: title, StartsAt: time.Now().Add(time.Hour)}
	if err := f.events.CreateEvent(event); err != nil {
		panic(err)
	}
	return event
}

func jsonContext(method, target, body string, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID})
	}
	return c, rec
}

func TestCreateEvent(t *testing.T) {
	f := newEventHandlerFixture()
	body := `{"title":"Game night","starts_at":"2026-09-01T19:00:00Z"}`
	c, rec := jsonContext(http.MethodPost, "/events", body, 1)

	require.NoError(t, f.handler.CreateEvent(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var got models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Game night", got.Title)
	assert.Equal(t, uint(1), got.CreatorID)

	require.Eventually(t, func() bool { return f.activities.count() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestCreateEventValidation(t *testing.T) {
	f := newEventHandlerFixture()
	c, _ := jsonContext(http.MethodPost, "/events", `{"title":""}`, 1)

	err := f.handler.CreateEvent(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestCreateInviteNotifiesInvitee(t *testing.T) {
	f := newEventHandlerFixture()
	event := f.seedEvent(1, "Game night")

	changes, cancel := f.hub.Subscribe(2)
	defer cancel()

	c, rec := jsonContext(http.MethodPost, "/events/1/invites", `{"user_id":2}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, f.handler.CreateInvite(c))

	assert.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, f.notifs.notifications, 1)
	n := f.notifs.notifications[0]
	assert.Equal(t, uint(2), n.UserID)
	assert.Equal(t, models.NotificationTypeInvite, n.Type)
	assert.Equal(t, `Alice invited you to "Game night"`, n.Message)
	require.NotNil(t, n.EventID)
	assert.Equal(t, event.ID, *n.EventID)

	change := <-changes
	assert.Equal(t, feed.ChangeInsert, change.Type)
	require.NotNil(t, change.New)
	assert.Equal(t, n.Message, change.New.Message)
}

func TestCreateInviteOnlyCreator(t *testing.T) {
	f := newEventHandlerFixture()
	f.seedEvent(1, "Game night")

	c, _ := jsonContext(http.MethodPost, "/events/1/invites", `{"user_id":1}`, 2)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := f.handler.CreateInvite(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestCreateInviteDuplicate(t *testing.T) {
	f := newEventHandlerFixture()
	event := f.seedEvent(1, "Game night")
	require.NoError(t, f.invites.CreateInvite(&models.Invite{EventID: event.ID, UserID: 2, InviterID: 1}))

	c, _ := jsonContext(http.MethodPost, "/events/1/invites", `{"user_id":2}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := f.handler.CreateInvite(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)
}

func TestRespondInviteNotifiesInviter(t *testing.T) {
	f := newEventHandlerFixture()
	event := f.seedEvent(1, "Game night")
	invite := &models.Invite{EventID: event.ID, UserID: 2, InviterID: 1, Status: models.InviteStatusPending}
	require.NoError(t, f.invites.CreateInvite(invite))

	c, rec := jsonContext(http.MethodPut, "/invites/1", `{"status":"accepted"}`, 2)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, f.handler.RespondInvite(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := f.invites.GetInviteByID(invite.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusAccepted, stored.Status)

	require.Len(t, f.notifs.notifications, 1)
	n := f.notifs.notifications[0]
	assert.Equal(t, uint(1), n.UserID, "the inviter is notified")
	assert.Equal(t, models.NotificationTypeInviteReply, n.Type)
	assert.Equal(t, `Bob accepted your invite to "Game night"`, n.Message)
}

func TestRespondInviteOnlyInvitee(t *testing.T) {
	f := newEventHandlerFixture()
	event := f.seedEvent(1, "Game night")
	require.NoError(t, f.invites.CreateInvite(&models.Invite{EventID: event.ID, UserID: 2, InviterID: 1}))

	c, _ := jsonContext(http.MethodPut, "/invites/1", `{"status":"declined"}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := f.handler.RespondInvite(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestRespondInviteRejectsUnknownStatus(t *testing.T) {
	f := newEventHandlerFixture()
	event := f.seedEvent(1, "Game night")
	require.NoError(t, f.invites.CreateInvite(&models.Invite{EventID: event.ID, UserID: 2, InviterID: 1}))

	c, _ := jsonContext(http.MethodPut, "/invites/1", `{"status":"maybe"}`, 2)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := f.handler.RespondInvite(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestUpdateEventNotifiesAcceptedInvitees(t *testing.T) {
	f := newEventHandlerFixture()
	event := f.seedEvent(1, "Game night")
	require.NoError(t, f.invites.CreateInvite(&models.Invite{EventID: event.ID, UserID: 2, InviterID: 1, Status: models.InviteStatusAccepted}))
	require.NoError(t, f.invites.CreateInvite(&models.Invite{EventID: event.ID, UserID: 3, InviterID: 1, Status: models.InviteStatusPending}))

	c, rec := jsonContext(http.MethodPut, "/events/1", `{"location":"The back room"}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, f.handler.UpdateEvent(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.notifs.notifications, 1, "only accepted invitees hear about changes")
	n := f.notifs.notifications[0]
	assert.Equal(t, uint(2), n.UserID)
	assert.Equal(t, models.NotificationTypeEventUpdate, n.Type)
	assert.Equal(t, `"Game night" has been updated`, n.Message)
}

func TestUpdateEventOnlyCreator(t *testing.T) {
	f := newEventHandlerFixture()
	f.seedEvent(1, "Game night")

	c, _ := jsonContext(http.MethodPut, "/events/1", `{"title":"Hijacked"}`, 2)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := f.handler.UpdateEvent(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestDeleteEventNotFound(t *testing.T) {
	f := newEventHandlerFixture()

	c, _ := jsonContext(http.MethodDelete, "/events/99", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("99")

	err := f.handler.DeleteEvent(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}
