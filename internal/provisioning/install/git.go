package install

import (
	"context"
	"fmt"

	"github.com/comfyup/comfyup/internal/platform/comfy"
	"github.com/comfyup/comfyup/internal/util/retry"
)

// InstallFromGit installs a custom node from a repository URL.
//
// Each attempt posts the URL as plain text and, if that is not accepted,
// immediately again as JSON {"url": ...}. The attempt is retried with
// backoff when either answer is transient. The queue is not reset first.
func (c *Coordinator) InstallFromGit(ctx context.Context, gitURL string) (Result, error) {
	c.observer.Printf("[github-node] Installing %s ...", gitURL)
	endpoint := c.client.APIURL(PathGitInstall)

	accepted, err := retry.UntilAccepted(ctx, func(ctx context.Context) (int, string, error) {
		code, body, _ := comfy.Status(c.client.Post(ctx, endpoint, []byte(gitURL), comfy.ContentTypeText))
		if code == 200 {
			return code, body, nil
		}
		code2, body2, _ := comfy.Status(c.client.PostJSON(ctx, endpoint, map[string]string{"url": gitURL}))
		if code2 == 200 {
			return code2, body2, nil
		}
		return combineAttempt(code, body, code2, body2)
	}, c.backoff("github-node install", c.timeouts.GitAttempts)...)
	if err != nil {
		return Result{Match: gitURL}, fmt.Errorf("[github-node] install failed: %w", err)
	}
	if !accepted {
		c.observer.Warnf("[github-node] giving up after retries for %s", gitURL)
		return Result{Match: gitURL, Detail: queueOutcome{}.detail()}, nil
	}

	c.client.StartQueue(ctx)
	idle, err := c.WaitIdle(ctx, c.timeouts.QueueIdle)
	if err != nil {
		return Result{Match: gitURL}, err
	}
	c.observer.Printf("[github-node] install %s", okOrTimeout(idle))
	return resultOf(gitURL, 0, queueOutcome{accepted: true, idle: idle}), nil
}

// combineAttempt folds the text and JSON answers into one status. A
// transient answer on either side makes the attempt transient; otherwise
// the attempt fails with both codes in the body.
func combineAttempt(code int, body string, code2 int, body2 string) (int, string, error) {
	if body == "" {
		body = body2
	}
	combined := fmt.Sprintf("(%d/%d) %s", code, code2, body)
	if retry.IsTransient(code) {
		return code, combined, nil
	}
	return code2, combined, nil
}
