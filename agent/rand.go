package agent

import (
	"math/rand"
	"time"
)

func newTimeSeededRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
