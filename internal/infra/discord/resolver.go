package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"guildsync/internal/usecase/publish"
)

// channelResponse is the subset of the Discord channel object we read.
type channelResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResolveChannel looks up a channel by id. A 404 (deleted) or 403 (bot
// kicked or permissions revoked) returns nil without an error: the caller
// treats the feed's channel as gone and skips the tick.
func (c *Client) ResolveChannel(ctx context.Context, channelID string) (*publish.Channel, error) {
	body, err := c.do(ctx, http.MethodGet, "/channels/"+channelID, nil)
	if err != nil {
		var clientErr *ClientError
		if errors.As(err, &clientErr) &&
			(clientErr.StatusCode == http.StatusNotFound || clientErr.StatusCode == http.StatusForbidden) {
			slog.Warn("channel not resolvable",
				slog.String("channel_id", channelID),
				slog.Int("status", clientErr.StatusCode))
			return nil, nil
		}
		return nil, err
	}

	var ch channelResponse
	if err := json.Unmarshal(body, &ch); err != nil {
		return nil, fmt.Errorf("decode channel response: %w", err)
	}
	return &publish.Channel{ID: ch.ID, Name: ch.Name}, nil
}
