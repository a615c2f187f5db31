// Copyright 2016 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package groveerrors defines the closed set of error kinds surfaced by the
// GroveDB-Go core, and the helpers used to construct and inspect them.
package groveerrors

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Use errors.Is against these, never string matching.
var (
	// ErrNotFound signals explicit absence: a query found no item for a
	// required key. Never retried internally.
	ErrNotFound = errors.New("grovedb: not found")

	// ErrInvalidInput signals a user contract breach: an unsorted batch, an
	// invalid range, an oversize key.
	ErrInvalidInput = errors.New("grovedb: invalid input")

	// ErrCorruptedData signals that storage or proof bytes failed to decode,
	// or failed a structural check. Fatal for the subtree handle involved.
	ErrCorruptedData = errors.New("grovedb: corrupted data")

	// ErrCorruptedPath signals that a forest path referenced a non-existent
	// intermediate tree where the operation required one to exist.
	ErrCorruptedPath = errors.New("grovedb: corrupted path")

	// ErrVersionMismatch signals that persisted format did not advertise a
	// recognized version.
	ErrVersionMismatch = errors.New("grovedb: version mismatch")

	// ErrInternal signals an invariant violation discovered after an apply
	// returned. Callers should abort the enclosing transaction.
	ErrInternal = errors.New("grovedb: internal invariant violation")

	// ErrProofInvalid is the root sentinel for all proof rejections; inspect
	// the wrapped ProofError for the specific Reason.
	ErrProofInvalid = errors.New("grovedb: proof invalid")

	// ErrOverflow signals numeric overflow while propagating an aggregate.
	ErrOverflow = errors.New("grovedb: aggregate overflow")
)

// ProofInvalidReason enumerates the sub-reasons a proof can be rejected for,
// per spec.md §7.
type ProofInvalidReason int

const (
	// ReasonBadStructure means the operator stream did not reduce to exactly
	// one stack element, or a Parent/Child found the wrong arity.
	ReasonBadStructure ProofInvalidReason = iota
	// ReasonRootMismatch means the reconstructed root hash did not match the
	// expected root.
	ReasonRootMismatch
	// ReasonMissingKey means the query forced a key in range that the result
	// set did not contain.
	ReasonMissingKey
	// ReasonAggregateMismatch means a stated or reconstructed subtree
	// aggregate (sum/count) disagreed with its sibling Hash or the stored
	// element.
	ReasonAggregateMismatch
	// ReasonLimitExceeded means a sized query produced more results than its
	// limit allowed.
	ReasonLimitExceeded
)

func (r ProofInvalidReason) String() string {
	switch r {
	case ReasonBadStructure:
		return "bad structure"
	case ReasonRootMismatch:
		return "root mismatch"
	case ReasonMissingKey:
		return "missing required key"
	case ReasonAggregateMismatch:
		return "aggregate mismatch"
	case ReasonLimitExceeded:
		return "limit exceeded"
	default:
		return "unknown"
	}
}

// ProofError carries the sub-reason and human detail behind ErrProofInvalid.
type ProofError struct {
	Reason ProofInvalidReason
	Detail string
}

func (e *ProofError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("grovedb: proof invalid: %s", e.Reason)
	}
	return fmt.Sprintf("grovedb: proof invalid: %s: %s", e.Reason, e.Detail)
}

func (e *ProofError) Unwrap() error { return ErrProofInvalid }

// NewProofError constructs a *ProofError for the given reason.
func NewProofError(reason ProofInvalidReason, detailFmt string, args ...interface{}) error {
	return &ProofError{Reason: reason, Detail: fmt.Sprintf(detailFmt, args...)}
}

// Wrapf wraps a sentinel with additional context, keeping errors.Is working.
func Wrapf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
