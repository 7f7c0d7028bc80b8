// Package install drives the manager install queue.
//
// Every install follows the same protocol: reset the queue, enqueue with
// backoff on transient codes, start the queue, then poll until it is idle.
// The reset step of one install erases another's in-flight queue, so a
// Coordinator must never be used concurrently against one workload.
package install
