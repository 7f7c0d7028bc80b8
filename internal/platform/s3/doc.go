// Package s3 uploads run reports to an S3-compatible bucket.
//
// Any endpoint speaking the S3 protocol works. A custom endpoint is
// addressed path-style, since most self-hosted stores do not serve
// virtual-hosted buckets.
package s3
