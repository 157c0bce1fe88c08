package dbx

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"math"

	"github.com/marcodd23/go-stream-db/pkg/logx"
)

// GenerateRandomInt64Id generates a random, non-zero 64-bit integer, used
// as a unique identifier for transactions.
func GenerateRandomInt64Id() int64 {
	var idNum uint64

	for idNum == 0 {
		err := binary.Read(rand.Reader, binary.BigEndian, &idNum)
		if err != nil {
			logx.GetLogger().LogError(context.TODO(), "error generating 64-bit random ID", err)
			continue
		}

		idNum %= uint64(math.MaxInt64)
	}

	return int64(idNum)
}
