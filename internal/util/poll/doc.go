// Package poll repeats a condition check until it holds or a deadline passes.
//
// Every wait in the provisioning flow (manager readiness, queue drain,
// workflow completion, reboot downtime) is an [Until] call with its own
// interval, growth factor, cap and budget.
package poll
