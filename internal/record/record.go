package record

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrCorrupt is returned by Decode when bytes were not produced by Encode.
var ErrCorrupt = errors.New("record: corrupt encoding")

// DeletedTag is the tri-state liveness tag of a Record.
type DeletedTag uint8

const (
	// NO means the record is live: visible to GET/HEAD and to listings.
	NO DeletedTag = iota
	// SOFT means the record was UNLINKed: invisible to GET/HEAD and to
	// prefix listings, but still surfaced by the unlinked-listing endpoint.
	SOFT
	// HARD means the record has been fully removed. A HARD record is
	// never itself stored; the tag exists so callers that inspect a
	// decoded value mid-transition have a name for "gone", matching the
	// index's actual behavior of deleting the key entirely.
	HARD
)

func (d DeletedTag) String() string {
	switch d {
	case NO:
		return "NO"
	case SOFT:
		return "SOFT"
	case HARD:
		return "HARD"
	default:
		return fmt.Sprintf("DeletedTag(%d)", uint8(d))
	}
}

// Record is the value stored under each key in the index.
type Record struct {
	// Hash is the hex-encoded MD5 of the blob contents (32 chars).
	Hash string
	// Volumes is the ordered replica set chosen at first write;
	// Volumes[0] is the primary. Immutable once the record exists.
	Volumes []string
	Deleted DeletedTag
}

const (
	formatVersion = 1
	md5RawLen     = 16
)

// Encode serializes r into a stable, compact byte layout:
//
//	[0]       version (1)
//	[1]       deleted tag
//	[2:18]    raw MD5 digest (16 bytes, decoded from r.Hash)
//	[18]      volume count
//	repeated: [2-byte big-endian length][volume bytes]
func Encode(r Record) ([]byte, error) {
	if len(r.Hash) != md5RawLen*2 {
		return nil, fmt.Errorf("record: hash must be %d hex chars, got %d", md5RawLen*2, len(r.Hash))
	}
	raw, err := hex.DecodeString(r.Hash)
	if err != nil {
		return nil, fmt.Errorf("record: hash is not valid hex: %w", err)
	}
	if len(r.Volumes) > 255 {
		return nil, fmt.Errorf("record: too many volumes (%d > 255)", len(r.Volumes))
	}

	size := 2 + md5RawLen + 1
	for _, v := range r.Volumes {
		size += 2 + len(v)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, formatVersion, byte(r.Deleted))
	buf = append(buf, raw...)
	buf = append(buf, byte(len(r.Volumes)))
	for _, v := range r.Volumes {
		var lenBytes [2]byte
		binary.BigEndian.PutUint16(lenBytes[:], uint16(len(v)))
		buf = append(buf, lenBytes[:]...)
		buf = append(buf, v...)
	}
	return buf, nil
}

// Decode deserializes bytes produced by Encode. Any structurally invalid
// input — wrong version, truncated fields, trailing garbage — fails with
// ErrCorrupt rather than partially decoding.
func Decode(data []byte) (Record, error) {
	const headerLen = 2 + md5RawLen + 1
	if len(data) < headerLen {
		return Record{}, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}
	if data[0] != formatVersion {
		return Record{}, fmt.Errorf("%w: unknown version %d", ErrCorrupt, data[0])
	}
	tag := DeletedTag(data[1])
	if tag != NO && tag != SOFT && tag != HARD {
		return Record{}, fmt.Errorf("%w: invalid deleted tag %d", ErrCorrupt, data[1])
	}

	raw := data[2 : 2+md5RawLen]
	count := int(data[2+md5RawLen])

	pos := headerLen
	volumes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if pos+2 > len(data) {
			return Record{}, fmt.Errorf("%w: truncated volume length at index %d", ErrCorrupt, i)
		}
		l := int(binary.BigEndian.Uint16(data[pos : pos+2]))
		pos += 2
		if pos+l > len(data) {
			return Record{}, fmt.Errorf("%w: truncated volume bytes at index %d", ErrCorrupt, i)
		}
		volumes = append(volumes, string(data[pos:pos+l]))
		pos += l
	}
	if pos != len(data) {
		return Record{}, fmt.Errorf("%w: trailing bytes after last volume", ErrCorrupt)
	}

	return Record{
		Hash:    hex.EncodeToString(raw),
		Volumes: volumes,
		Deleted: tag,
	}, nil
}
