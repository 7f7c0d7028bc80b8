// Package config defines the run file consumed by the provisioning
// pipeline.
//
// A [Config] names the workload to lease and the items to install on it:
// catalog node and model queries, GitHub extension URLs and models
// downloaded from arbitrary URLs. Credentials never live in the file; they
// are read from the environment by [Config.ApplyEnv]. Wait budgets and
// retry cadence are resolved separately by [LoadTimeouts].
package config
