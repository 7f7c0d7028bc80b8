// Package testing provides test utilities and fakes for unit tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - Manager: a scriptable fake of the ComfyUI manager API
//   - Observer: a provisioning.Observer that records everything it is told
//
// Usage:
//
//	m := testutil.NewManager(t)
//	m.On(http.MethodGet, testutil.RouteQueueStatus,
//	    testutil.JSON(200, `{"is_processing": true}`),
//	    testutil.JSON(200, `{"is_processing": false, "in_progress_count": 0}`))
//	client := m.Client()
package testing
