package matrixapi_test

import (
	"context"
	"testing"

	"github.com/fsu-jena/matrix-notify/matrixapi"
)

const syncBody = `{
  "next_batch": "s2",
  "rooms": {
    "join": {
      "!abc:test": {
        "timeline": {
          "events": [
            {
              "type": "m.room.member",
              "state_key": "@alice:test",
              "sender": "@alice:test",
              "content": {"membership": "join", "displayname": "Alice"},
              "unsigned": {"prev_content": {"membership": "invite"}}
            },
            {
              "type": "m.room.message",
              "sender": "@alice:test",
              "content": {"body": "hi"}
            },
            {
              "type": "m.room.member",
              "state_key": "@bob:test",
              "sender": "@bob:test",
              "content": {"membership": "leave"},
              "prev_content": {"membership": "join"}
            }
          ]
        }
      }
    }
  }
}`

func TestSyncParsesMemberEvents(t *testing.T) {
	client, srv := newTestClient(t)
	srv.MockSyncOnce(syncBody)

	next, events, err := client.Sync(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if next != "s2" {
		t.Errorf("next batch = %q, want s2", next)
	}
	if len(events) != 2 {
		t.Fatalf("got %d member events, want 2", len(events))
	}

	joinEvt := events[0]
	if joinEvt.UserID != "@alice:test" || joinEvt.RoomID != "!abc:test" {
		t.Errorf("unexpected event identity %+v", joinEvt)
	}
	if joinEvt.Membership != matrixapi.MembershipJoin {
		t.Errorf("membership = %q, want join", joinEvt.Membership)
	}
	if joinEvt.PrevMembership != matrixapi.MembershipInvite {
		t.Errorf("prev membership = %q, want invite (from unsigned)", joinEvt.PrevMembership)
	}
	if joinEvt.DisplayName != "Alice" {
		t.Errorf("displayname = %q, want Alice", joinEvt.DisplayName)
	}

	leaveEvt := events[1]
	if leaveEvt.Membership != matrixapi.MembershipLeave {
		t.Errorf("membership = %q, want leave", leaveEvt.Membership)
	}
	if leaveEvt.PrevMembership != matrixapi.MembershipJoin {
		t.Errorf("prev membership = %q, want join (from top-level prev_content)", leaveEvt.PrevMembership)
	}
}

func TestSyncEmptyResponse(t *testing.T) {
	client, srv := newTestClient(t)
	srv.MockSyncOnce(`{"next_batch": "s1", "rooms": {"join": {}}}`)

	next, events, err := client.Sync(context.Background(), "")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if next != "s1" {
		t.Errorf("next batch = %q, want s1", next)
	}
	if len(events) != 0 {
		t.Errorf("got %d events from empty sync", len(events))
	}
}
