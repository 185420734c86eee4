package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"room-booking/middleware"
	"room-booking/models"
	"room-booking/policy"
	"room-booking/services"
)

func init() { gin.SetMode(gin.TestMode) }

var (
	alice = policy.Actor{UserID: 1}
	root  = policy.Actor{UserID: 4, IsStaff: true, IsSuperuser: true}
)

type tokenTable map[string]policy.Actor

func (t tokenTable) Resolve(_ context.Context, key string) (policy.Actor, error) {
	if a, ok := t[key]; ok {
		return a, nil
	}
	return policy.Anonymous, services.ErrUnauthenticated
}

var testTokens = tokenTable{"alice-token": alice, "root-token": root}

// envelope is the decoded response body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func call(e http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func newEngine() *gin.Engine {
	e := gin.New()
	e.Use(middleware.Authenticate(testTokens))
	return e
}

// ---- fakes ----

type fakeAuth struct {
	result      *services.AuthResult
	err         error
	email       string
	loggedOut   policy.Actor
	registerArg [3]string
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (*services.AuthResult, error) {
	f.email = email
	return f.result, f.err
}

func (f *fakeAuth) Register(_ context.Context, email, password, fullName string) (*services.AuthResult, error) {
	f.registerArg = [3]string{email, password, fullName}
	return f.result, f.err
}

func (f *fakeAuth) Logout(_ context.Context, actor policy.Actor) error {
	f.loggedOut = actor
	return f.err
}

type fakeRooms struct {
	err     error
	input   services.RoomInput
	partial bool
	calls   int
}

func (f *fakeRooms) List(context.Context) ([]models.Room, error) {
	f.calls++
	return []models.Room{{ID: 1, Name: "Sea View"}}, f.err
}

func (f *fakeRooms) Get(_ context.Context, id uint) (*models.Room, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Room{ID: id, Name: "Sea View"}, nil
}

func (f *fakeRooms) Create(_ context.Context, _ policy.Actor, in services.RoomInput) (*models.Room, error) {
	f.calls++
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Room{ID: 9, Name: *in.Name}, nil
}

func (f *fakeRooms) Update(_ context.Context, _ policy.Actor, id uint, in services.RoomInput, partial bool) (*models.Room, error) {
	f.calls++
	f.input, f.partial = in, partial
	if f.err != nil {
		return nil, f.err
	}
	return &models.Room{ID: id}, nil
}

func (f *fakeRooms) Delete(context.Context, policy.Actor, uint) error {
	f.calls++
	return f.err
}

type fakeBookings struct {
	err     error
	actor   policy.Actor
	input   services.BookingInput
	partial bool
	calls   int
}

func (f *fakeBookings) booking(id uint, in services.BookingInput) *models.Booking {
	b := &models.Booking{ID: id, UserID: f.actor.UserID}
	if in.RoomID != nil {
		b.RoomID = *in.RoomID
	}
	if in.Date != nil {
		b.Date, _ = services.ParseDate(*in.Date)
	}
	return b
}

func (f *fakeBookings) List(_ context.Context, actor policy.Actor) ([]models.Booking, error) {
	f.calls++
	f.actor = actor
	if !actor.IsAuthenticated() {
		return []models.Booking{}, nil
	}
	return []models.Booking{*f.booking(1, services.BookingInput{})}, f.err
}

func (f *fakeBookings) Create(_ context.Context, actor policy.Actor, in services.BookingInput) (*models.Booking, error) {
	f.calls++
	f.actor, f.input = actor, in
	if f.err != nil {
		return nil, f.err
	}
	return f.booking(11, in), nil
}

func (f *fakeBookings) Get(_ context.Context, actor policy.Actor, id uint) (*models.Booking, error) {
	f.calls++
	f.actor = actor
	if f.err != nil {
		return nil, f.err
	}
	return f.booking(id, services.BookingInput{}), nil
}

func (f *fakeBookings) Update(_ context.Context, actor policy.Actor, id uint, in services.BookingInput, partial bool) (*models.Booking, error) {
	f.calls++
	f.actor, f.input, f.partial = actor, in, partial
	if f.err != nil {
		return nil, f.err
	}
	return f.booking(id, in), nil
}

func (f *fakeBookings) Delete(_ context.Context, actor policy.Actor, _ uint) error {
	f.calls++
	f.actor = actor
	return f.err
}

type fakeImages struct {
	err    error
	upload services.ImageUpload
	roomID uint
	calls  int
}

func (f *fakeImages) ListImages(_ context.Context, roomID uint) ([]models.RoomImage, error) {
	f.calls++
	f.roomID = roomID
	return []models.RoomImage{}, f.err
}

func (f *fakeImages) AddImage(_ context.Context, _ policy.Actor, roomID uint, up services.ImageUpload) (*models.RoomImage, error) {
	f.calls++
	f.roomID, f.upload = roomID, up
	if f.err != nil {
		return nil, f.err
	}
	return &models.RoomImage{ID: 5, RoomID: roomID, ContentType: up.ContentType, Caption: up.Caption}, nil
}

func (f *fakeImages) DeleteImage(_ context.Context, _ policy.Actor, roomID, _ uint) error {
	f.calls++
	f.roomID = roomID
	return f.err
}
