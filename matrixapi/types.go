package matrixapi

import (
	"fmt"

	"maunium.net/go/mautrix/id"
)

// Membership is a room membership state as defined in the client-server spec.
type Membership string

const (
	MembershipJoin   Membership = "join"
	MembershipLeave  Membership = "leave"
	MembershipInvite Membership = "invite"
	MembershipBan    Membership = "ban"
	MembershipKnock  Membership = "knock"
)

// Error is the standard Matrix error body returned on non-2xx responses.
type Error struct {
	StatusCode int
	Code       string `json:"errcode"`
	Message    string `json:"error"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("matrix: %s (%s, HTTP %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("matrix: HTTP %d", e.StatusCode)
}

// MemberEvent is an m.room.member timeline event reduced to the fields the
// join reactor consumes. UserID is the event's state_key, i.e. the user whose
// membership changed (not necessarily the sender).
type MemberEvent struct {
	RoomID         id.RoomID
	UserID         id.UserID
	Sender         id.UserID
	Membership     Membership
	PrevMembership Membership
	DisplayName    string
}

type loginRequest struct {
	Type       string          `json:"type"`
	Identifier loginIdentifier `json:"identifier"`
	Password   string          `json:"password"`
}

type loginIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type loginResponse struct {
	UserID      id.UserID `json:"user_id"`
	AccessToken string    `json:"access_token"`
	DeviceID    string    `json:"device_id"`
}

type joinedRoomsResponse struct {
	JoinedRooms []id.RoomID `json:"joined_rooms"`
}

type roomNameContent struct {
	Name string `json:"name"`
}

type membersResponse struct {
	Chunk []struct {
		StateKey id.UserID `json:"state_key"`
	} `json:"chunk"`
}

type inviteRequest struct {
	UserID id.UserID `json:"user_id"`
}

type memberContent struct {
	Membership  Membership `json:"membership"`
	DisplayName string     `json:"displayname"`
}

type rawEvent struct {
	Type        string         `json:"type"`
	StateKey    *string        `json:"state_key"`
	Sender      id.UserID      `json:"sender"`
	Content     memberContent  `json:"content"`
	PrevContent *memberContent `json:"prev_content"`
	Unsigned    struct {
		PrevContent *memberContent `json:"prev_content"`
	} `json:"unsigned"`
}

type syncResponse struct {
	NextBatch string `json:"next_batch"`
	Rooms     struct {
		Join map[id.RoomID]struct {
			Timeline struct {
				Events []rawEvent `json:"events"`
			} `json:"timeline"`
		} `json:"join"`
	} `json:"rooms"`
}
