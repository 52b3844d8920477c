package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dias221467/teachmate/internal/config"
	"github.com/Dias221467/teachmate/internal/devserver"
	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/push"
)

type fakeMailer struct {
	to, subject, body string
}

func (m *fakeMailer) Enabled() bool { return true }

func (m *fakeMailer) Send(to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

type testServer struct {
	*httptest.Server
	backend *devserver.Backend
	hub     *Hub
	mailer  *fakeMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		TokenExpiry:    time.Hour,
		ModeratorEmail: "mod@teachmate.test",
	}
	backend := devserver.NewBackend("", nil)
	backend.SetHashCost(bcrypt.MinCost)
	hub := NewHub()
	mailer := &fakeMailer{}
	srv := httptest.NewServer(NewRouter(cfg, backend, hub, mailer))
	t.Cleanup(srv.Close)
	backend.SetFileURL(srv.URL + "/api/files")
	return &testServer{Server: srv, backend: backend, hub: hub, mailer: mailer}
}

type reply struct {
	Status  int
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) call(t *testing.T, method, path, token string, body interface{}) reply {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+"/api"+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(t, req)
}

func (s *testServer) do(t *testing.T, req *http.Request) reply {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var r reply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	r.Status = resp.StatusCode
	return r
}

func (s *testServer) signUp(t *testing.T, name string) models.AuthResult {
	t.Helper()
	r := s.call(t, "POST", "/auth/register", "", models.RegisterInput{
		Username: name,
		Email:    name + "@school.test",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, r.Status)
	require.True(t, r.Success, r.Message)
	var res models.AuthResult
	require.NoError(t, json.Unmarshal(r.Data, &res))
	require.NotEmpty(t, res.Token)
	return res
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	aida := s.signUp(t, "aida")

	r := s.call(t, "POST", "/auth/login", "", map[string]string{"email": "aida@school.test", "password": "password123"})
	assert.Equal(t, http.StatusOK, r.Status)
	assert.True(t, r.Success)

	r = s.call(t, "POST", "/auth/login", "", map[string]string{"email": "aida@school.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	assert.False(t, r.Success)

	r = s.call(t, "GET", "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	r = s.call(t, "GET", "/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	r = s.call(t, "GET", "/users/me", aida.Token, nil)
	require.Equal(t, http.StatusOK, r.Status)
	var me models.User
	require.NoError(t, json.Unmarshal(r.Data, &me))
	assert.Equal(t, aida.User.ID, me.ID)
}

func TestValidationFailuresAreSuccessFalse(t *testing.T) {
	s := newTestServer(t)
	aida := s.signUp(t, "aida")

	r := s.call(t, "POST", "/threads/groups", aida.Token, models.CreateGroupInput{Name: ""})
	assert.Equal(t, http.StatusOK, r.Status)
	assert.False(t, r.Success)
	assert.Equal(t, "Group name is required", r.Message)

	req, err := http.NewRequest("POST", s.URL+"/api/threads/groups", strings.NewReader("{"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+aida.Token)
	r = s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, r.Status)
}

func TestForeignThreadIsNotFound(t *testing.T) {
	s := newTestServer(t)
	aida := s.signUp(t, "aida")
	bolat := s.signUp(t, "bolat")
	xeniya := s.signUp(t, "xeniya")

	r := s.call(t, "POST", "/threads/direct", aida.Token, map[string]string{"userId": bolat.User.ID})
	require.True(t, r.Success)
	var th models.Thread
	require.NoError(t, json.Unmarshal(r.Data, &th))

	r = s.call(t, "GET", "/threads/"+th.ID, xeniya.Token, nil)
	assert.Equal(t, http.StatusNotFound, r.Status, "a 403 would sign the caller out")
}

func TestFixedPathsWinOverIDs(t *testing.T) {
	s := newTestServer(t)
	aida := s.signUp(t, "aida")
	s.signUp(t, "bolat")

	r := s.call(t, "GET", "/users/search?q=bol", aida.Token, nil)
	require.Equal(t, http.StatusOK, r.Status)
	var users []models.User
	require.NoError(t, json.Unmarshal(r.Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "bolat", users[0].Username)

	r = s.call(t, "GET", "/threads/groups", aida.Token, nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.JSONEq(t, "[]", string(r.Data))
}

func TestMultipartMessageAndFile(t *testing.T) {
	s := newTestServer(t)
	aida := s.signUp(t, "aida")
	bolat := s.signUp(t, "bolat")

	r := s.call(t, "POST", "/threads/direct", aida.Token, map[string]string{"userId": bolat.User.ID})
	var th models.Thread
	require.NoError(t, json.Unmarshal(r.Data, &th))

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("content", "homework"))
	require.NoError(t, w.WriteField("clientId", "local-1"))
	part, err := w.CreateFormFile("files", "hw.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("solve 1-10"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest("POST", s.URL+"/api/threads/"+th.ID+"/messages", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+aida.Token)
	r = s.do(t, req)
	require.Equal(t, http.StatusCreated, r.Status, r.Message)

	var msg models.Message
	require.NoError(t, json.Unmarshal(r.Data, &msg))
	assert.Equal(t, "local-1", msg.ClientID)
	require.Len(t, msg.Attachments, 1)

	resp, err := http.Get(msg.Attachments[0].URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "solve 1-10", string(data))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
}

func TestOversizedMultipartIsRejected(t *testing.T) {
	prev := maxUploadSize
	maxUploadSize = 1 << 10
	t.Cleanup(func() { maxUploadSize = prev })

	s := newTestServer(t)
	aida := s.signUp(t, "aida")
	bolat := s.signUp(t, "bolat")

	r := s.call(t, "POST", "/threads/direct", aida.Token, map[string]string{"userId": bolat.User.ID})
	var th models.Thread
	require.NoError(t, json.Unmarshal(r.Data, &th))

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("content", "scan"))
	part, err := w.CreateFormFile("files", "scan.bin")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{'x'}, 4<<10))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest("POST", s.URL+"/api/threads/"+th.ID+"/messages", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+aida.Token)
	r = s.do(t, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, r.Status)
	assert.False(t, r.Success)
	assert.Empty(t, s.backend.Threads(bolat.User.ID, models.ThreadStranger), "no message was stored")
}

func TestReportIsForwarded(t *testing.T) {
	s := newTestServer(t)
	aida := s.signUp(t, "aida")
	bolat := s.signUp(t, "bolat")

	r := s.call(t, "POST", "/users/"+bolat.User.ID+"/report", aida.Token, models.Report{Reason: "spam", Details: "links"})
	require.True(t, r.Success, r.Message)
	assert.Equal(t, "mod@teachmate.test", s.mailer.to)
	assert.Contains(t, s.mailer.body, "spam")
	assert.Len(t, s.backend.Reports(), 1)
}

func TestPushSocketDeliversEvents(t *testing.T) {
	s := newTestServer(t)
	aida := s.signUp(t, "aida")
	bolat := s.signUp(t, "bolat")

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/api/ws?token=" + bolat.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.Connected(bolat.User.ID) == 1 }, time.Second, 10*time.Millisecond)

	r := s.call(t, "POST", "/friends/requests", aida.Token, map[string]string{"userId": bolat.User.ID})
	require.True(t, r.Success, r.Message)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got := map[string]bool{}
	for len(got) < 2 {
		var ev push.Event
		require.NoError(t, conn.ReadJSON(&ev))
		got[ev.Type] = true
	}
	assert.True(t, got[push.NotificationCreated])
	assert.True(t, got[push.FriendRequestUpdated])

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+"/api/ws?token=bad", nil)
	assert.Error(t, err)
}
