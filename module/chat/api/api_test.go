package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	midsec "PTalk/middleware/security"
	"PTalk/module/chat/event"
	chatmodel "PTalk/module/chat/model"
	"PTalk/module/chat/service"
	"PTalk/module/chat/store"
	usermodel "PTalk/module/user/model"
	"PTalk/service/online"
	jwtsec "PTalk/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "api-secret"

func newEngine(t *testing.T) (*gin.Engine, *store.MemStore, *service.FriendService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewMemStore()
	st.PutUser(&usermodel.User{ID: "u1", FirstName: "Ann", LastName: "Lee", Avatar: "a.png"})
	st.PutUser(&usermodel.User{ID: "u2", FirstName: "Bob", LastName: "Ray"})

	reg := online.NewRegistry()
	n := service.NewNotifier(reg)
	friends := service.NewFriendService(st, n, nil)
	s := &Server{Friends: friends, Calls: service.NewCallService(st, n, reg, nil)}

	r := gin.New()
	s.Mount(r, midsec.DefaultOptions([]byte(secret), "HS256"))
	return r, st, friends
}

func do(t *testing.T, r http.Handler, method, path, user string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		tok, _, err := jwtsec.Issue(jwtsec.DefaultOptions([]byte(secret)), user)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHealthIsOpen(t *testing.T) {
	r, _, _ := newEngine(t)
	w, resp := do(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", resp.Status)
}

func TestRoutesNeedToken(t *testing.T) {
	r, _, _ := newEngine(t)
	w, resp := do(t, r, http.MethodGet, "/api/calls", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error", resp.Status)
}

func TestStartCallAndLogs(t *testing.T) {
	r, st, _ := newEngine(t)

	w, resp := do(t, r, http.MethodPost, "/api/calls/video", "u1", map[string]string{"id": "u2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	raw, _ := json.Marshal(resp.Data)
	var invite event.CallInvite
	require.NoError(t, json.Unmarshal(raw, &invite))
	assert.Equal(t, "u2", invite.From.ID)
	assert.Equal(t, "u1", invite.UserID)
	assert.Equal(t, "Ann Lee", invite.UserName)

	l, err := st.FindCallLog(context.Background(), "u1", "u2", chatmodel.CallVideo)
	require.NoError(t, err)
	assert.Equal(t, invite.RoomID, l.ID)
	assert.Equal(t, chatmodel.CallOngoing, l.Status)

	w, resp = do(t, r, http.MethodGet, "/api/calls", "u2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	raw, _ = json.Marshal(resp.Data)
	var entries []event.CallLogEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Ann Lee", entries[0].Name)
	assert.Equal(t, "a.png", entries[0].Img)
	assert.True(t, entries[0].Incoming)
	assert.True(t, entries[0].Missed)
}

func TestStartCallErrors(t *testing.T) {
	r, _, _ := newEngine(t)

	w, resp := do(t, r, http.MethodPost, "/api/calls/audio", "u1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", resp.Status)

	w, _ = do(t, r, http.MethodPost, "/api/calls/audio", "u1", map[string]string{"id": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/calls/audio", "u1", map[string]string{"id": "u1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFriendsAndRequests(t *testing.T) {
	r, _, friends := newEngine(t)
	ctx := context.Background()

	req, err := friends.Send(ctx, "u2", "u1")
	require.NoError(t, err)

	w, resp := do(t, r, http.MethodGet, "/api/requests", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	raw, _ := json.Marshal(resp.Data)
	var pending []event.FriendRequestView
	require.NoError(t, json.Unmarshal(raw, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "Bob", pending[0].Sender.FirstName)

	require.NoError(t, friends.Accept(ctx, req.ID, "u1"))
	w, resp = do(t, r, http.MethodGet, "/api/friends", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	raw, _ = json.Marshal(resp.Data)
	var list []usermodel.Brief
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "u2", list[0].ID)

	w, _ = do(t, r, http.MethodGet, "/api/friends", "nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserDiscovery(t *testing.T) {
	r, st, friends := newEngine(t)
	ctx := context.Background()
	for _, u := range []*usermodel.User{
		{ID: "u1", FirstName: "Ann", Verified: true},
		{ID: "u2", FirstName: "Bob", Verified: true},
		{ID: "u3", FirstName: "Cy", Verified: true},
		{ID: "u4", FirstName: "Dee"},
	} {
		st.PutUser(u)
	}
	_, err := friends.Send(ctx, "u2", "u1")
	require.NoError(t, err)

	ids := func(path string) []string {
		w, resp := do(t, r, http.MethodGet, path, "u1", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		raw, _ := json.Marshal(resp.Data)
		var list []usermodel.Brief
		require.NoError(t, json.Unmarshal(raw, &list))
		out := make([]string, 0, len(list))
		for _, b := range list {
			out = append(out, b.ID)
		}
		return out
	}
	assert.Equal(t, []string{"u3"}, ids("/api/users"))
	assert.Equal(t, []string{"u2", "u3"}, ids("/api/users/all"))

	w, _ := do(t, r, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/users", "nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
