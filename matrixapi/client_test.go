package matrixapi_test

import (
	"context"
	"errors"
	"testing"

	"maunium.net/go/mautrix/id"

	"github.com/fsu-jena/matrix-notify/matrixapi"
	"github.com/fsu-jena/matrix-notify/testutil"
)

const room = id.RoomID("!abc:test")

func newTestClient(t *testing.T) (*matrixapi.Client, *testutil.MockMatrixServer) {
	t.Helper()
	srv := testutil.NewMockMatrixServer(t)
	client := matrixapi.NewClient(srv.URL)
	client.AccessToken = "syt_test_token"
	return client, srv
}

func TestLoginStoresIdentity(t *testing.T) {
	client, srv := newTestClient(t)
	client.AccessToken = ""
	srv.MockLogin("@bot:test", "syt_fresh")

	if err := client.Login(context.Background(), "bot", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if client.UserID != "@bot:test" {
		t.Errorf("UserID = %s, want @bot:test", client.UserID)
	}
	if client.AccessToken != "syt_fresh" {
		t.Errorf("AccessToken = %s, want syt_fresh", client.AccessToken)
	}
}

func TestLoginFailureIsTypedError(t *testing.T) {
	client, _ := newTestClient(t)
	client.AccessToken = ""

	// No /login handler registered: mock answers 404 with a Matrix body.
	err := client.Login(context.Background(), "bot", "wrong")
	if err == nil {
		t.Fatal("Login succeeded against empty mock")
	}
	var apiErr *matrixapi.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not *matrixapi.Error", err)
	}
	if apiErr.Code != "M_NOT_FOUND" {
		t.Errorf("errcode = %q, want M_NOT_FOUND", apiErr.Code)
	}
}

func TestJoinedRooms(t *testing.T) {
	client, srv := newTestClient(t)
	srv.MockJoinedRooms(room, "!def:test")

	rooms, err := client.JoinedRooms(context.Background())
	if err != nil {
		t.Fatalf("JoinedRooms: %v", err)
	}
	if len(rooms) != 2 || rooms[0] != room {
		t.Errorf("rooms = %v", rooms)
	}
}

func TestRoomName(t *testing.T) {
	client, srv := newTestClient(t)
	srv.MockRoomName(room, "General")

	name, err := client.RoomName(context.Background(), room)
	if err != nil {
		t.Fatalf("RoomName: %v", err)
	}
	if name != "General" {
		t.Errorf("name = %q, want General", name)
	}

	// Nameless room: the state endpoint 404s.
	if _, err := client.RoomName(context.Background(), "!other:test"); err == nil {
		t.Error("RoomName on nameless room did not error")
	}
}

func TestJoinedMembers(t *testing.T) {
	client, srv := newTestClient(t)
	srv.MockMembers(room, "@a:test", "@b:test")

	members, err := client.JoinedMembers(context.Background(), room)
	if err != nil {
		t.Fatalf("JoinedMembers: %v", err)
	}
	if len(members) != 2 || members[0] != "@a:test" || members[1] != "@b:test" {
		t.Errorf("members = %v", members)
	}
}

func TestJoinedMembersErrorSurfaces(t *testing.T) {
	client, srv := newTestClient(t)
	srv.MockMembersError(room, 403)

	if _, err := client.JoinedMembers(context.Background(), room); err == nil {
		t.Error("JoinedMembers did not surface the 403")
	}
}

func TestInviteSendsUserID(t *testing.T) {
	client, srv := newTestClient(t)
	srv.CaptureInvites(room)

	if err := client.Invite(context.Background(), room, "@new:test"); err != nil {
		t.Fatalf("Invite: %v", err)
	}
	invites := srv.Invites()
	if len(invites) != 1 || invites[0].User != "@new:test" || invites[0].Room != room {
		t.Errorf("captured invites = %v", invites)
	}
}
