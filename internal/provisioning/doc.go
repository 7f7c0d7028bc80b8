// Package provisioning provides the shared types used to drive a ComfyUI
// workload from launch to a fully installed, rebooted service.
//
// # Subpackages
//
//   - readiness/: any-of health probing after boot and reboot
//   - catalog/: manager catalog listings and fuzzy query resolution
//   - install/: the reset, enqueue, start, wait-idle queue protocol
//   - reboot/: the request, observe-down, observe-up reboot cycle
//   - workflow/: prompt submission and history tracking
//
// This root package holds the phase pipeline, the per-run [Context] and
// [State], and the [Observer] every phase reports through.
package provisioning
