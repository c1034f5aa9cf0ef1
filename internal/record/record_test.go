package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHash() string {
	return "d5cfc4290104671bfbdf4a9c3ed31ea1"[:32]
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Record{
		{Hash: sampleHash(), Volumes: []string{"v0:3500", "v1:3500", "v2:3500"}, Deleted: NO},
		{Hash: sampleHash(), Volumes: []string{"v0:3500"}, Deleted: SOFT},
		{Hash: sampleHash(), Volumes: nil, Deleted: NO},
		{Hash: sampleHash(), Volumes: []string{""}, Deleted: NO},
	}
	for _, r := range cases {
		enc, err := Encode(r)
		require.NoError(t, err)
		dec, err := Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, r.Hash, dec.Hash)
		assert.Equal(t, r.Deleted, dec.Deleted)
		if len(r.Volumes) == 0 {
			assert.Empty(t, dec.Volumes)
		} else {
			assert.Equal(t, r.Volumes, dec.Volumes)
		}
	}
}

func TestDistinguishableRecordsEncodeDifferently(t *testing.T) {
	a, err := Encode(Record{Hash: sampleHash(), Volumes: []string{"v0"}, Deleted: NO})
	require.NoError(t, err)
	b, err := Encode(Record{Hash: sampleHash(), Volumes: []string{"v0"}, Deleted: SOFT})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecodeRejectsTruncated(t *testing.T) {
	enc, err := Encode(Record{Hash: sampleHash(), Volumes: []string{"v0:3500"}, Deleted: NO})
	require.NoError(t, err)
	_, err = Decode(enc[:len(enc)-2])
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeRejectsTrailingGarbage(t *testing.T) {
	enc, err := Encode(Record{Hash: sampleHash(), Volumes: []string{"v0:3500"}, Deleted: NO})
	require.NoError(t, err)
	enc = append(enc, 0xff)
	_, err = Decode(enc)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	enc, err := Encode(Record{Hash: sampleHash(), Volumes: nil, Deleted: NO})
	require.NoError(t, err)
	enc[0] = 0xff
	_, err = Decode(enc)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeRejectsBadDeletedTag(t *testing.T) {
	enc, err := Encode(Record{Hash: sampleHash(), Volumes: nil, Deleted: NO})
	require.NoError(t, err)
	enc[1] = 0xff
	_, err = Decode(enc)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestEncodeRejectsBadHashLength(t *testing.T) {
	_, err := Encode(Record{Hash: "short", Volumes: nil, Deleted: NO})
	assert.Error(t, err)
}

func TestEncodeRejectsNonHexHash(t *testing.T) {
	bad := strings.Repeat("z", 32)
	_, err := Encode(Record{Hash: bad, Volumes: nil, Deleted: NO})
	assert.Error(t, err)
}

func TestDeletedTagString(t *testing.T) {
	assert.Equal(t, "NO", NO.String())
	assert.Equal(t, "SOFT", SOFT.String())
	assert.Equal(t, "HARD", HARD.String())
}
