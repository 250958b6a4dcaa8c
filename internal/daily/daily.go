// internal/daily/daily.go
//
// Daily duel: every player gets the same sequence of pairs on a given UTC day.
// The day's random source is seeded from HMAC-SHA256(salt, "YYYY-MM-DD"), so
// the sequence cannot be predicted without the salt but is stable for the day.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed derives the two PCG seed words for a date.
func Seed(date time.Time, salt string) (uint64, uint64) {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])
}

// NewRand returns the day's random source, positioned at its start.
func NewRand(date time.Time, salt string) *rand.Rand {
	return rand.New(rand.NewPCG(Seed(date, salt)))
}
