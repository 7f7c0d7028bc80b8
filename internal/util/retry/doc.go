// Package retry provides exponential backoff retry logic for transient failures.
//
// [WithExponentialBackoff] retries an error-returning operation; errors
// wrapped with [Fatal] stop it immediately. [UntilAccepted] drives an HTTP
// style operation by status code: accepted codes succeed, transient codes
// (see [IsTransient]) back off and retry, anything else is a hard
// [StatusError]. Running out of attempts is reported as a false result, not
// an error, so callers decide how severe a give-up is.
package retry
