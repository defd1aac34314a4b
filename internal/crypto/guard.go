package crypto

import (
	"crypto/rand"
	"math/big"
	"time"
)

// sleepFn is replaced in tests to observe the guard delay.
var sleepFn = time.Sleep

// guardDelay sleeps for a random duration in [0, maxGuardDelay) to blur
// the timing difference between valid and invalid decrypt attempts.
func guardDelay() {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(maxGuardDelay)))
	if err != nil {
		// Falling back to the maximum keeps the delay bounded without
		// leaking anything about the attempt.
		sleepFn(maxGuardDelay)
		return
	}
	sleepFn(time.Duration(n.Int64()))
}
