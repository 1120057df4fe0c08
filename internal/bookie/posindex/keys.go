package posindex

import "encoding/binary"

// Keyspace layout (byte-wise, lexicographically sortable):
// - pos/{ledger_be8}/{entry_be8} -> {log_be4}{offset_be8}

var posPrefix = []byte("pos/")

const (
	sep       = byte('/')
	valueSize = 4 + 8
)

// keyPosition builds the index key for (ledgerId, entryId). Big-endian ids
// keep entries of one ledger adjacent and ordered.
func keyPosition(ledgerID, entryID int64) []byte {
	k := make([]byte, 0, len(posPrefix)+8+1+8)
	k = append(k, posPrefix...)
	k = appendBE8(k, uint64(ledgerID))
	k = append(k, sep)
	k = appendBE8(k, uint64(entryID))
	return k
}

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

func encodeLocation(logID int, offset int64) []byte {
	v := make([]byte, valueSize)
	binary.BigEndian.PutUint32(v[0:4], uint32(logID))
	binary.BigEndian.PutUint64(v[4:12], uint64(offset))
	return v
}

func decodeLocation(v []byte) (logID int, offset int64, ok bool) {
	if len(v) != valueSize {
		return 0, 0, false
	}
	return int(binary.BigEndian.Uint32(v[0:4])), int64(binary.BigEndian.Uint64(v[4:12])), true
}
