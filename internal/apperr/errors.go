// Package apperr defines the typed errors shared by the ingestion and query
// paths. Callers inspect them with errors.As; every layer wraps with %w so the
// original type survives.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ConfigurationError reports a missing or invalid setting. It is fatal to the
// operation that needed the setting, never to the interactive session.
type ConfigurationError struct {
	Key       string // environment variable, e.g. "GITHUB_TOKEN"
	Component string // who needed it, e.g. "github"
	Reason    string
}

func (e *ConfigurationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is not set"
	}
	if e.Component != "" {
		return fmt.Sprintf("%s: configuration %s %s", e.Component, e.Key, reason)
	}
	return fmt.Sprintf("configuration %s %s", e.Key, reason)
}

// RemoteError is a failed call to an external service: a non-2xx response or
// a transport failure. Status is 0 for transport failures and timeouts.
type RemoteError struct {
	Service   string
	Status    int
	Body      string
	Retryable bool
	Err       error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	default:
		return e.Service + ": remote call failed"
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// MalformedRecordError marks a single upstream record that lacks a required
// field. The record is skipped; the batch continues.
type MalformedRecordError struct {
	Field  string
	Number int
}

func (e *MalformedRecordError) Error() string {
	if e.Number > 0 {
		return fmt.Sprintf("malformed issue #%d: missing %s", e.Number, e.Field)
	}
	return "malformed issue: missing " + e.Field
}

// LoopLimitExceeded is returned when the agent loop runs out of iterations
// before producing a final answer. It fails the current question only.
type LoopLimitExceeded struct {
	Limit int
}

func (e *LoopLimitExceeded) Error() string {
	return fmt.Sprintf("agent loop exceeded %d iterations without a final answer", e.Limit)
}

// Remote builds a RemoteError from a transport error, classifying timeouts
// as retryable.
func Remote(service string, err error) *RemoteError {
	return &RemoteError{Service: service, Err: err, Retryable: isTransient(err)}
}

// RemoteStatus builds a RemoteError from an HTTP status. 429 and 5xx are
// retryable.
func RemoteStatus(service string, status int, body string) *RemoteError {
	return &RemoteError{
		Service:   service,
		Status:    status,
		Body:      body,
		Retryable: status == 429 || status >= 500,
	}
}

// IsRetryable reports whether err is a RemoteError marked retryable or a
// deadline/timeout.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return isTransient(err)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Exit codes used by the CLI.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitRemote        = 3
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return ExitConfiguration
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return ExitRemote
	}
	return ExitFailure
}
