package cryptox

import (
	"testing"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheapParams keeps Argon2id fast in tests.
var cheapParams = KdfParams{Time: 1, MemoryKiB: 64, Threads: 1}

func TestDerive_Deterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")

	k1, err := cheapParams.Derive([]byte("correct horse"), salt)
	require.NoError(t, err)
	k2, err := cheapParams.Derive([]byte("correct horse"), salt)
	require.NoError(t, err)

	assert.Len(t, k1, KeySize)
	assert.Equal(t, k1, k2)
}

func TestDerive_InputsChangeOutput(t *testing.T) {
	salt := []byte("0123456789abcdef")
	otherSalt := []byte("fedcba9876543210")

	base, err := cheapParams.Derive([]byte("correct horse"), salt)
	require.NoError(t, err)

	pwChanged, err := cheapParams.Derive([]byte("correct horsf"), salt)
	require.NoError(t, err)
	saltChanged, err := cheapParams.Derive([]byte("correct horse"), otherSalt)
	require.NoError(t, err)

	assert.NotEqual(t, base, pwChanged)
	assert.NotEqual(t, base, saltChanged)
}

func TestDerive_RejectsBadSalt(t *testing.T) {
	_, err := cheapParams.Derive([]byte("pw"), []byte("short"))
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestNewSalt(t *testing.T) {
	a, err := NewSalt()
	require.NoError(t, err)
	b, err := NewSalt()
	require.NoError(t, err)

	assert.Len(t, a, SaltSize)
	assert.NotEqual(t, a, b)
}

func TestNewKdfParams(t *testing.T) {
	tests := []struct {
		name    string
		time    int
		memory  int
		threads int
		wantErr bool
	}{
		{name: "defaults", time: 3, memory: 65536, threads: 4},
		{name: "minimum", time: 1, memory: 8, threads: 1},
		{name: "zero time", time: 0, memory: 65536, threads: 4, wantErr: true},
		{name: "negative memory", time: 1, memory: -1, threads: 1, wantErr: true},
		{name: "memory below lanes", time: 1, memory: 31, threads: 4, wantErr: true},
		{name: "zero threads", time: 1, memory: 65536, threads: 0, wantErr: true},
		{name: "threads overflow", time: 1, memory: 65536, threads: 256, wantErr: true},
		{name: "memory too large", time: 1, memory: 8 * 1024 * 1024, threads: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewKdfParams(tt.time, tt.memory, tt.threads)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidKdfParameters)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint32(tt.time), p.Time)
			assert.Equal(t, uint32(tt.memory), p.MemoryKiB)
			assert.Equal(t, uint8(tt.threads), p.Threads)
		})
	}
}

func TestDefaultKdfParams_Valid(t *testing.T) {
	p := DefaultKdfParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, KdfParams{Time: 3, MemoryKiB: 65536, Threads: 4}, p)
}
