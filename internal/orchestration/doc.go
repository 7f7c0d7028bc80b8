// Package orchestration provides the top-level workflow of a comfyup run.
//
// This package sequences the provisioning phases in the internal/provisioning
// subpackages. It defines the execution order and converts the final state
// into a report; the phases do the actual work.
//
// # Workflow
//
// The Orchestrator executes the following phases in order:
//  1. Launch - Lease a workload and attach a client to it
//  2. Readiness - Wait for the ComfyUI Manager to answer
//  3. Install - Catalog nodes, catalog models, the required extension,
//     then the requested GitHub extensions
//  4. Reboot - Restart the manager so new extensions load
//  5. URL models - Install models by direct URL, falling back to the
//     downloader workflow
//
// A failing phase aborts the run. A failing item inside the install or URL
// model phases is recorded and the next item is attempted.
//
// # Usage
//
//	o := orchestration.New(cfg, comput3.NewClient(cfg.APIKey), observer)
//	rep, err := o.Run(ctx)
package orchestration
