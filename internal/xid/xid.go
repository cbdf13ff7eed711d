package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var seq atomic.Uint64

// New returns a prefixed id unique within the process even when called
// many times inside the same millisecond (bulk CSV imports, rapid sales).
func New(prefix string) string {
	n := seq.Add(1)
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), n)
	}
	return fmt.Sprintf("%s-%d-%d-%s", prefix, time.Now().UnixNano(), n, hex.EncodeToString(buf))
}
