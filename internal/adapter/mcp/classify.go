package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strings"
)

// Kind tags a connection failure with its diagnosed category.
// Classification is best-effort: where the transport library does not return
// typed errors, message heuristics are applied at this boundary only.
type Kind string

const (
	KindNone      Kind = ""
	KindConfig    Kind = "config"
	KindTimeout   Kind = "timeout"
	KindDNS       Kind = "dns"
	KindProcess   Kind = "process"
	KindIO        Kind = "io"
	KindProtocol  Kind = "protocol"
	KindMalformed Kind = "malformed"
	KindUnknown   Kind = "unknown"
)

// Retryable reports whether another connection attempt can plausibly succeed.
// An unresolvable address stays unresolvable; everything else may be transient.
func (k Kind) Retryable() bool {
	return k != KindDNS
}

// ClassifiedError pairs a connection failure with its diagnosed Kind.
type ClassifiedError struct {
	Kind Kind
	Err  error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Category exposes the diagnosed kind as a string, letting callers record
// it without depending on this package's types.
func (e *ClassifiedError) Category() string {
	return string(e.Kind)
}

// classify walks err to its root cause and diagnoses it, checking categories
// in priority order: timeout, dns, process, io, protocol, malformed, unknown.
func classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Kind: diagnose(err), Err: err}
}

func diagnose(err error) Kind {
	root := rootCause(err)
	msg := strings.ToLower(root.Error())

	switch {
	case isTimeout(err, msg):
		return KindTimeout
	case isDNS(err, msg):
		return KindDNS
	case isProcess(err, msg):
		return KindProcess
	case isIO(err):
		return KindIO
	case strings.Contains(msg, "mcp error") || strings.Contains(msg, "protocol version") || strings.Contains(msg, "jsonrpc"):
		return KindProtocol
	case strings.Contains(msg, "json") || strings.Contains(msg, "unmarshal") || strings.Contains(msg, "unexpected end of"):
		return KindMalformed
	default:
		return KindUnknown
	}
}

// rootCause follows the Unwrap chain to the innermost error.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func isTimeout(err error, msg string) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nErr net.Error
	if errors.As(err, &nErr) && nErr.Timeout() {
		return true
	}
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out")
}

func isDNS(err error, msg string) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "name resolution") ||
		strings.Contains(msg, "failed to resolve") ||
		strings.Contains(msg, "dns")
}

func isProcess(err error, msg string) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return true
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	return strings.Contains(msg, "executable file not found") ||
		strings.Contains(msg, "fork/exec") ||
		strings.Contains(msg, "cannot run program") ||
		strings.Contains(msg, "process exited") ||
		strings.Contains(msg, "spawn")
}

func isIO(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
