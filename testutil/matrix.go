// Package testutil provides an httptest-backed mock Matrix homeserver
// covering the client-server v3 endpoints the notifier consumes.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"maunium.net/go/mautrix/id"
)

const apiPrefix = "/_matrix/client/v3"

// Invite is one captured invite request.
type Invite struct {
	Room id.RoomID
	User id.UserID
}

// MockMatrixServer creates a test server that mocks homeserver API responses.
type MockMatrixServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	mu      sync.Mutex
	invites []Invite
}

// NewMockMatrixServer creates a new mock homeserver.
func NewMockMatrixServer(t *testing.T) *MockMatrixServer {
	t.Helper()
	m := &MockMatrixServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"errcode": "M_NOT_FOUND", "error": "not found"})
	}))
	t.Cleanup(m.Close)
	return m
}

// MockLogin adds a handler for /login returning the given identity.
func (m *MockMatrixServer) MockLogin(userID id.UserID, token string) {
	m.Handlers[apiPrefix+"/login"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"user_id":      string(userID),
			"access_token": token,
			"device_id":    "MOCKDEV",
		})
	}
}

// MockJoinedRooms adds a handler for /joined_rooms.
func (m *MockMatrixServer) MockJoinedRooms(rooms ...id.RoomID) {
	m.Handlers[apiPrefix+"/joined_rooms"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"joined_rooms": rooms})
	}
}

// MockRoomName adds a handler for a room's m.room.name state.
func (m *MockMatrixServer) MockRoomName(room id.RoomID, name string) {
	m.Handlers[fmt.Sprintf("%s/rooms/%s/state/m.room.name", apiPrefix, room)] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"name": name})
	}
}

// MockMembers adds a handler for a room's joined members.
func (m *MockMatrixServer) MockMembers(room id.RoomID, users ...id.UserID) {
	m.Handlers[fmt.Sprintf("%s/rooms/%s/members", apiPrefix, room)] = func(w http.ResponseWriter, r *http.Request) {
		chunk := make([]map[string]any, 0, len(users))
		for _, u := range users {
			chunk = append(chunk, map[string]any{
				"type":      "m.room.member",
				"state_key": string(u),
				"content":   map[string]string{"membership": "join"},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"chunk": chunk})
	}
}

// MockMembersError makes a room's member query fail with the given status.
func (m *MockMatrixServer) MockMembersError(room id.RoomID, status int) {
	m.Handlers[fmt.Sprintf("%s/rooms/%s/members", apiPrefix, room)] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"errcode": "M_FORBIDDEN", "error": "denied"})
	}
}

// CaptureInvites records invite requests for a room and responds 200.
func (m *MockMatrixServer) CaptureInvites(room id.RoomID) {
	m.Handlers[fmt.Sprintf("%s/rooms/%s/invite", apiPrefix, room)] = func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID id.UserID `json:"user_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		m.mu.Lock()
		m.invites = append(m.invites, Invite{Room: room, User: body.UserID})
		m.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}
}

// FailInvites makes invite requests for a room fail with the given status.
func (m *MockMatrixServer) FailInvites(room id.RoomID, status int) {
	m.Handlers[fmt.Sprintf("%s/rooms/%s/invite", apiPrefix, room)] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"errcode": "M_FORBIDDEN", "error": "denied"})
	}
}

// Invites returns the captured invite requests in arrival order.
func (m *MockMatrixServer) Invites() []Invite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Invite, len(m.invites))
	copy(out, m.invites)
	return out
}

// MockSyncOnce serves one canned /sync response body per call, in order.
// Once the bodies are exhausted further polls fail with a 500, which ends a
// sync loop deterministically.
func (m *MockMatrixServer) MockSyncOnce(bodies ...string) {
	var calls int
	m.Handlers[apiPrefix+"/sync"] = func(w http.ResponseWriter, r *http.Request) {
		i := calls
		calls++
		if i >= len(bodies) {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"errcode": "M_UNKNOWN", "error": "sync script exhausted"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bodies[i]))
	}
}
