package notify

import (
	"context"
	"testing"

	"maunium.net/go/mautrix/id"
)

func TestResolvePopulatesSets(t *testing.T) {
	dir := newTestDirectory()
	reg := NewRegistry(Names{Space: "Space", Watch: []string{"RoomA"}, Invite: []string{"RoomB"}})

	if err := reg.Resolve(context.Background(), dir); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if reg.SpaceID() != spaceID {
		t.Errorf("SpaceID = %s, want %s", reg.SpaceID(), spaceID)
	}
	wantWatch := []id.RoomID{spaceID, roomAID}
	if got := reg.WatchIDs(); len(got) != len(wantWatch) {
		t.Errorf("WatchIDs = %v, want %v", got, wantWatch)
	}
	if got := reg.InviteIDs(); len(got) != 1 || got[0] != roomBID {
		t.Errorf("InviteIDs = %v, want [%s]", got, roomBID)
	}
	if !reg.Resolved() {
		t.Error("Resolved() = false after successful resolve")
	}
}

func TestResolveSkipsNamelessRooms(t *testing.T) {
	dir := newTestDirectory()
	nameless := id.RoomID("!nameless:test")
	dir.rooms = append(dir.rooms, nameless)
	// no entry in dir.names: RoomName returns a 404-style error

	reg := NewRegistry(Names{Space: "Space", Watch: []string{"RoomA"}, Invite: []string{"RoomB"}})
	if err := reg.Resolve(context.Background(), dir); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, room := range reg.WatchIDs() {
		if room == nameless {
			t.Error("nameless room ended up in the watch set")
		}
	}
}

func TestResolvePartialCoverageIsNotFatal(t *testing.T) {
	dir := newTestDirectory()
	reg := NewRegistry(Names{Space: "Space", Watch: []string{"RoomA", "NoSuchRoom"}, Invite: nil})

	if err := reg.Resolve(context.Background(), dir); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Space + RoomA resolved, NoSuchRoom silently missing.
	if got := len(reg.WatchIDs()); got != 2 {
		t.Errorf("WatchIDs size = %d, want 2", got)
	}
}

func TestResolveRecomputesFromScratch(t *testing.T) {
	dir := newTestDirectory()
	reg := NewRegistry(Names{Space: "Space", Watch: []string{"RoomA"}, Invite: []string{"RoomB"}})

	if err := reg.Resolve(context.Background(), dir); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}

	// The account leaves RoomA and RoomB before the second pass; last write
	// wins, no merging with the previous result.
	dir.rooms = []id.RoomID{spaceID}
	if err := reg.Resolve(context.Background(), dir); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if got := reg.WatchIDs(); len(got) != 1 || got[0] != spaceID {
		t.Errorf("WatchIDs after re-resolve = %v, want [%s]", got, spaceID)
	}
	if got := reg.InviteIDs(); len(got) != 0 {
		t.Errorf("InviteIDs after re-resolve = %v, want empty", got)
	}
}

func TestIsWatchedNameExcludesSpaceByDefault(t *testing.T) {
	reg := NewRegistry(Names{Space: "Space", Watch: []string{"RoomA"}, Invite: nil})
	if reg.IsWatchedName("Space") {
		t.Error("space name counted as watched without being configured")
	}
	if !reg.IsWatchedName("RoomA") {
		t.Error("configured watch name not recognized")
	}
	if reg.IsWatchedName("") {
		t.Error("empty name counted as watched")
	}
}
