// Package comfy is the authenticated HTTP transport to a ComfyUI workload
// and its manager extension.
//
// The client attaches Comput3 and ComfyUI credentials to every request and
// returns raw status codes and bodies. It never retries: retry and polling
// policy belongs to the callers in internal/provisioning.
package comfy
