package matrixapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"maunium.net/go/mautrix/id"
)

// syncTimeout is the server-side long-poll timeout for /sync.
const syncTimeout = 30 * time.Second

// memberFilter narrows /sync to m.room.member timeline events; everything
// else (messages, receipts, presence, typing) is noise for this service.
const memberFilter = `{"room":{"timeline":{"types":["m.room.member"]},"state":{"types":[]},"ephemeral":{"types":[]},"account_data":{"types":[]}},"presence":{"types":[]},"account_data":{"types":[]}}`

// Sync performs one /sync long-poll starting at the given batch token (empty
// for an initial sync) and returns the next batch token plus the membership
// events it carried, in server order.
//
// The initial sync returns a snapshot of current state rather than new
// activity; callers wanting "changes from now on" should discard the events
// of the first call and keep only its token.
func (c *Client) Sync(ctx context.Context, since string) (string, []MemberEvent, error) {
	q := url.Values{}
	q.Set("filter", memberFilter)
	if since != "" {
		q.Set("since", since)
		q.Set("timeout", strconv.FormatInt(syncTimeout.Milliseconds(), 10))
	}
	var resp syncResponse
	if err := c.do(ctx, http.MethodGet, "/sync", q, nil, &resp); err != nil {
		return "", nil, err
	}
	var events []MemberEvent
	for roomID, room := range resp.Rooms.Join {
		for _, raw := range room.Timeline.Events {
			if raw.Type != "m.room.member" || raw.StateKey == nil {
				continue
			}
			evt := MemberEvent{
				RoomID:      roomID,
				UserID:      id.UserID(*raw.StateKey),
				Sender:      raw.Sender,
				Membership:  raw.Content.Membership,
				DisplayName: raw.Content.DisplayName,
			}
			// Synapse delivers the previous membership under unsigned;
			// some older servers still put it at the top level.
			if raw.Unsigned.PrevContent != nil {
				evt.PrevMembership = raw.Unsigned.PrevContent.Membership
			} else if raw.PrevContent != nil {
				evt.PrevMembership = raw.PrevContent.Membership
			}
			events = append(events, evt)
		}
	}
	return resp.NextBatch, events, nil
}
