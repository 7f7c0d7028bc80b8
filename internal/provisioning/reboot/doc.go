// Package reboot drives the ComfyUI Manager through a restart.
//
// A reboot cycle moves strictly forward through
//
//	NotStarted -> Requested -> ObservedDown -> ObservedUp -> Complete
//
// ObservedDown may be skipped when the restart is too quick to catch
// between polls. Everything after the cycle assumes the new process has
// loaded every extension installed before it.
package reboot
