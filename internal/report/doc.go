// Package report records the outcome of a provisioning run and stores it
// in a local JSON file or an S3-compatible bucket.
package report
