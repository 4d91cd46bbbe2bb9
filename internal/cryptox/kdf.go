package cryptox

import (
	"crypto/rand"
	"fmt"
	"math"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"golang.org/x/crypto/argon2"
)

const SaltSize = 16

// Argon2id bounds. The library requires at least 8 KiB of memory per lane;
// the upper memory bound keeps a typo in a config file from exhausting the host.
const (
	minKdfMemoryPerThreadKiB = 8
	maxKdfMemoryKiB          = 4 * 1024 * 1024
)

// KdfParams are the Argon2id cost parameters. They are deployment constants:
// an entry sealed under one set of parameters only opens under the same set.
type KdfParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultKdfParams returns time=3, memory=64 MiB, threads=4.
func DefaultKdfParams() KdfParams {
	return KdfParams{Time: 3, MemoryKiB: 64 * 1024, Threads: 4}
}

// NewKdfParams converts configuration integers into validated KdfParams.
func NewKdfParams(timeCost, memoryKiB, threads int) (KdfParams, error) {
	if timeCost < 1 || int64(timeCost) > math.MaxUint32 {
		return KdfParams{}, fmt.Errorf("%w: time cost %d", common.ErrInvalidKdfParameters, timeCost)
	}
	if threads < 1 || threads > math.MaxUint8 {
		return KdfParams{}, fmt.Errorf("%w: parallelism %d", common.ErrInvalidKdfParameters, threads)
	}
	if memoryKiB < 0 || memoryKiB > maxKdfMemoryKiB {
		return KdfParams{}, fmt.Errorf("%w: memory cost %d KiB", common.ErrInvalidKdfParameters, memoryKiB)
	}

	p := KdfParams{Time: uint32(timeCost), MemoryKiB: uint32(memoryKiB), Threads: uint8(threads)}
	if err := p.Validate(); err != nil {
		return KdfParams{}, err
	}
	return p, nil
}

// Validate checks the parameters against what argon2.IDKey accepts.
func (p KdfParams) Validate() error {
	if p.Time < 1 {
		return fmt.Errorf("%w: time cost must be at least 1", common.ErrInvalidKdfParameters)
	}
	if p.Threads < 1 {
		return fmt.Errorf("%w: parallelism must be at least 1", common.ErrInvalidKdfParameters)
	}
	if p.MemoryKiB < minKdfMemoryPerThreadKiB*uint32(p.Threads) {
		return fmt.Errorf("%w: memory cost must be at least %d KiB for %d threads",
			common.ErrInvalidKdfParameters, minKdfMemoryPerThreadKiB*uint32(p.Threads), p.Threads)
	}
	if p.MemoryKiB > maxKdfMemoryKiB {
		return fmt.Errorf("%w: memory cost above %d KiB", common.ErrInvalidKdfParameters, maxKdfMemoryKiB)
	}
	return nil
}

// Derive turns password and a 16-byte salt into a 32-byte key. The result
// is deterministic for identical inputs; callers should wipe it after use.
func (p KdfParams) Derive(password, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes", common.ErrorValidation, SaltSize)
	}
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, KeySize), nil
}

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt generation: %w", err)
	}
	return salt, nil
}
