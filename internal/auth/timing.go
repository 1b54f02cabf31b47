package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingDelay evens out authentication response times so that "unknown user"
// and "wrong password" are indistinguishable by latency.
type TimingDelay struct {
	base   time.Duration
	jitter time.Duration
}

func NewTimingDelay(base, jitter time.Duration) *TimingDelay {
	return &TimingDelay{base: base, jitter: jitter}
}

// WaitFrom sleeps until at least base+random(jitter) has elapsed since start.
// Called on every failed login path before responding.
func (td *TimingDelay) WaitFrom(start time.Time) {
	target := td.base
	if td.jitter > 0 {
		target += cryptoRandDuration(td.jitter)
	}

	if elapsed := time.Since(start); elapsed < target {
		time.Sleep(target - elapsed)
	}
}

// cryptoRandDuration returns a uniformly random duration in [0, max).
// crypto/rand, not math/rand: the jitter exists to mask timing.
func cryptoRandDuration(max time.Duration) time.Duration {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return time.Duration(binary.BigEndian.Uint64(buf[:]) % uint64(max))
}
