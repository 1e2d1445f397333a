package chat

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	sessionAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	sessionSuffixLen = 9
)

// NewSessionID returns a conversation id of the form
// session_<unix-ms>_<9 base36 characters>, the format the widget generates.
func NewSessionID() string {
	return newSessionID(time.Now())
}

func newSessionID(now time.Time) string {
	suffix := make([]byte, sessionSuffixLen)
	limit := big.NewInt(int64(len(sessionAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(fmt.Sprintf("session id: %v", err))
		}
		suffix[i] = sessionAlphabet[n.Int64()]
	}
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), suffix)
}
