// Package workflow submits ComfyUI prompts and follows them to completion.
//
// ComfyUI has no push notifications for prompt runs. A run is tracked by
// polling /history/{id} and inferring a terminal state from whichever
// status fields the build happens to return.
package workflow
