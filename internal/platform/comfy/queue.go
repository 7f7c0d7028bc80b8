package comfy

import (
	"context"
	"fmt"

	"github.com/comfyup/comfyup/internal/util/jsondoc"
)

// Manager queue endpoints, relative to the API base.
const (
	PathQueue         = "/queue"
	PathQueueReset    = "/manager/queue/reset"
	PathQueueStart    = "/manager/queue/start"
	PathQueueStatus   = "/manager/queue/status"
	PathManagerReboot = "/manager/reboot"
)

// QueueState is one snapshot of the manager install queue.
type QueueState struct {
	IsProcessing    bool
	InProgressCount int
}

// Idle reports whether nothing is processing and nothing is in progress.
func (s QueueState) Idle() bool {
	return !s.IsProcessing && s.InProgressCount == 0
}

// ParseQueueState reads a /manager/queue/status body. A missing
// in_progress_count counts as zero.
func ParseQueueState(body []byte) (QueueState, error) {
	doc, err := jsondoc.Parse(body)
	if err != nil {
		return QueueState{}, fmt.Errorf("queue status: %w", err)
	}
	count, _ := doc.Int("in_progress_count")
	return QueueState{
		IsProcessing:    doc.Bool("is_processing"),
		InProgressCount: count,
	}, nil
}

// ResetQueue clears the manager install queue. The result is ignored.
func (c *Client) ResetQueue(ctx context.Context) {
	_, _ = c.Get(ctx, c.APIURL(PathQueueReset))
}

// StartQueue asks the manager to start processing its queue. The result is ignored.
func (c *Client) StartQueue(ctx context.Context) {
	_, _ = c.Get(ctx, c.APIURL(PathQueueStart))
}

// QueueStatus fetches the current queue snapshot. A non-200 status is
// returned alongside an error.
func (c *Client) QueueStatus(ctx context.Context) (QueueState, error) {
	resp, err := c.Get(ctx, c.APIURL(PathQueueStatus))
	if err != nil {
		return QueueState{}, err
	}
	if !resp.OK() {
		return QueueState{}, fmt.Errorf("queue status returned %d", resp.StatusCode)
	}
	return ParseQueueState(resp.Body)
}
