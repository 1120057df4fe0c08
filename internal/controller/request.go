package controller

import (
	"encoding/binary"
	"fmt"
)

// RequestType is the fixed-width discriminator leading every envelope. It is
// decodable independently of the payload so the receiver can route before
// parsing the rest.
type RequestType int32

const (
	requestTypeUnspecified RequestType = iota
	RequestTypeRegisterBookie
	RequestTypeListBookies
	RequestTypeNextLedgerID
)

func (t RequestType) String() string {
	switch t {
	case RequestTypeRegisterBookie:
		return "RegisterBookie"
	case RequestTypeListBookies:
		return "ListBookies"
	case RequestTypeNextLedgerID:
		return "NextLedgerId"
	default:
		return fmt.Sprintf("RequestType(%d)", int32(t))
	}
}

// Request is the closed set of controller request kinds. Decoding yields one
// of the concrete types below; the discriminator and payload schema must
// agree or decoding fails.
type Request interface {
	Type() RequestType
}

// RegisterBookieRequest asks the controller to add a storage node to the
// membership registry. Write path.
type RegisterBookieRequest struct {
	Service string
}

func (*RegisterBookieRequest) Type() RequestType { return RequestTypeRegisterBookie }

// ListBookiesRequest asks for the current membership set. Read-only path.
type ListBookiesRequest struct{}

func (*ListBookiesRequest) Type() RequestType { return RequestTypeListBookies }

// NextLedgerIDRequest asks for a fresh globally unique ledger id. Write path:
// the allocation must ride the replicated log to survive failover.
type NextLedgerIDRequest struct{}

func (*NextLedgerIDRequest) Type() RequestType { return RequestTypeNextLedgerID }

// RegisterBookieReply reports whether the service was already registered.
type RegisterBookieReply struct {
	AlreadyExisted bool
}

// ListBookiesReply carries a snapshot of the membership set.
type ListBookiesReply struct {
	Services []string
}

// NextLedgerIDReply carries a freshly allocated ledger id.
type NextLedgerIDReply struct {
	LedgerID int64
}

const requestTypeSize = 4

// EncodeRequest writes the envelope: a 4-byte big-endian discriminator
// followed by the type-specific payload.
func EncodeRequest(req Request) []byte {
	var payload []byte
	if r, ok := req.(*RegisterBookieRequest); ok {
		payload = []byte(r.Service)
	}
	out := make([]byte, requestTypeSize, requestTypeSize+len(payload))
	binary.BigEndian.PutUint32(out, uint32(req.Type()))
	return append(out, payload...)
}

// DecodeRequest parses an envelope. An unrecognized discriminator or a
// payload that disagrees with it is a decode failure, never a default.
func DecodeRequest(data []byte) (Request, error) {
	if len(data) < requestTypeSize {
		return nil, fmt.Errorf("%w: envelope too short (%d bytes)", ErrMalformedRequest, len(data))
	}
	requestType := RequestType(binary.BigEndian.Uint32(data))
	payload := data[requestTypeSize:]
	switch requestType {
	case RequestTypeRegisterBookie:
		if len(payload) == 0 {
			return nil, fmt.Errorf("%w: RegisterBookie with empty service", ErrMalformedRequest)
		}
		return &RegisterBookieRequest{Service: string(payload)}, nil
	case RequestTypeListBookies:
		if len(payload) != 0 {
			return nil, fmt.Errorf("%w: ListBookies carries %d payload bytes", ErrMalformedRequest, len(payload))
		}
		return &ListBookiesRequest{}, nil
	case RequestTypeNextLedgerID:
		if len(payload) != 0 {
			return nil, fmt.Errorf("%w: NextLedgerId carries %d payload bytes", ErrMalformedRequest, len(payload))
		}
		return &NextLedgerIDRequest{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownRequestType, int32(requestType))
	}
}
