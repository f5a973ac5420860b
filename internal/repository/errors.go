// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// bid engine and the handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a state transition cannot be applied
// because the row is no longer in the expected state, e.g. accepting a
// bid that another request already resolved.
var ErrConflict = errors.New("conflict")

// ErrOutbid is returned by the conditional bid insert when the amount
// no longer strictly exceeds the starting price and every pending or
// accepted bid of the auction.
var ErrOutbid = errors.New("outbid")

// ErrAuctionClosed is returned when a bid mutation targets an auction
// that is not active or whose end time has passed.
var ErrAuctionClosed = errors.New("auction closed")

// ErrEmailExists is returned when registering a duplicate email or username.
var ErrEmailExists = errors.New("email or username already exists")
