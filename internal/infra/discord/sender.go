package discord

import (
	"context"
	"net/http"

	"guildsync/internal/observability/metrics"
	"guildsync/internal/usecase/publish"
)

// SendMessage posts one rendered message to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID string, msg publish.Message) error {
	_, err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", msg)
	if err != nil {
		metrics.RecordPublishError(errorType(err))
		return err
	}
	return nil
}
