// Package matrixapi contains minimal helpers to interact with the Matrix
// client-server v3 API: password login, room/membership queries, invites and
// the /sync long-poll. Only the endpoints the notifier consumes are covered.
package matrixapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"maunium.net/go/mautrix/id"
)

const apiPrefix = "/_matrix/client/v3"

// Client is a thin typed client for a single homeserver. Login populates
// UserID and the access token; all other calls require them.
type Client struct {
	Homeserver  string // base URL, e.g. https://synapse.example.org
	UserID      id.UserID
	AccessToken string
	HTTPClient  *http.Client
}

// NewClient builds a client for the given host. A bare hostname (the usual
// CLI input) is prefixed with https://.
func NewClient(host string) *Client {
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return &Client{Homeserver: strings.TrimRight(host, "/")}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// do issues a JSON request against the client-server API and decodes the
// response into out (if non-nil). Non-2xx responses are returned as *Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.Homeserver + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body *bytes.Buffer
	if in != nil {
		body = &bytes.Buffer{}
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, u, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u, nil)
	}
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Login performs an m.login.password login and stores the returned access
// token and fully-qualified user ID on the client.
func (c *Client) Login(ctx context.Context, user, password string) error {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/login", nil, loginRequest{
		Type:       "m.login.password",
		Identifier: loginIdentifier{Type: "m.id.user", User: user},
		Password:   password,
	}, &resp)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.UserID = resp.UserID
	c.AccessToken = resp.AccessToken
	return nil
}

// JoinedRooms lists the rooms the logged-in account is currently joined to.
func (c *Client) JoinedRooms(ctx context.Context) ([]id.RoomID, error) {
	var resp joinedRoomsResponse
	if err := c.do(ctx, http.MethodGet, "/joined_rooms", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.JoinedRooms, nil
}

// RoomName fetches the m.room.name state of a room. Rooms are not required
// to have a name; the 404 a nameless room produces surfaces as an error.
func (c *Client) RoomName(ctx context.Context, room id.RoomID) (string, error) {
	var content roomNameContent
	path := fmt.Sprintf("/rooms/%s/state/m.room.name", url.PathEscape(string(room)))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &content); err != nil {
		return "", err
	}
	return content.Name, nil
}

// JoinedMembers lists the user IDs currently in "join" state in a room.
func (c *Client) JoinedMembers(ctx context.Context, room id.RoomID) ([]id.UserID, error) {
	var resp membersResponse
	path := fmt.Sprintf("/rooms/%s/members", url.PathEscape(string(room)))
	q := url.Values{}
	q.Set("membership", string(MembershipJoin))
	if err := c.do(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
		return nil, err
	}
	members := make([]id.UserID, 0, len(resp.Chunk))
	for _, m := range resp.Chunk {
		members = append(members, m.StateKey)
	}
	return members, nil
}

// Invite invites a user into a room.
func (c *Client) Invite(ctx context.Context, room id.RoomID, user id.UserID) error {
	path := fmt.Sprintf("/rooms/%s/invite", url.PathEscape(string(room)))
	return c.do(ctx, http.MethodPost, path, nil, inviteRequest{UserID: user}, nil)
}
