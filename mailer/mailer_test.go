package mailer

import (
	"testing"

	"github.com/fsu-jena/matrix-notify/notify"
)

func TestBodyFormat(t *testing.T) {
	n := notify.Notification{
		DisplayName: "Alice",
		UserID:      "@alice:example.org",
		RoomKind:    "space",
		RoomName:    "Research Group",
	}
	want := `New member "Alice" (@alice:example.org) joined the matrix space Research Group`
	if got := Body(n); got != want {
		t.Errorf("Body() = %q, want %q", got, want)
	}
}

func TestBodyRoomKind(t *testing.T) {
	n := notify.Notification{DisplayName: "Bob", UserID: "@bob:example.org", RoomKind: "room", RoomName: "Seminar"}
	want := `New member "Bob" (@bob:example.org) joined the matrix room Seminar`
	if got := Body(n); got != want {
		t.Errorf("Body() = %q, want %q", got, want)
	}
}

func TestSendRejectsBadAddresses(t *testing.T) {
	m := &SMTPMailer{
		Host: "localhost", Port: 2525,
		From: "not an address", To: "ops@example.org",
		Subject: "New member",
	}
	if err := m.Send(t.Context(), notify.Notification{}); err == nil {
		t.Error("Send accepted an invalid From address")
	}
}
