package controller

import "errors"

// ErrNotLeader reports that this node cannot serve the operation because it
// is not the raft leader. Clients should redirect to the advertised leader.
var ErrNotLeader = errors.New("controller: not the leader")

// ErrUnknownRequestType reports an envelope whose discriminator names no
// known request kind. Decode failures never mutate state.
var ErrUnknownRequestType = errors.New("controller: unknown request type")

// ErrMalformedRequest reports an envelope whose payload does not match the
// schema its discriminator promises.
var ErrMalformedRequest = errors.New("controller: malformed request")

// ErrUnsupportedRequest reports a well-formed request arriving on a path
// that does not handle its kind (a read on the write path or vice versa).
var ErrUnsupportedRequest = errors.New("controller: unsupported request for this path")
