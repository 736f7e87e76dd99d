package utils

import (
	"math/rand"
	"sync"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	randSource    = rand.NewSource(time.Now().UnixNano())
	randGenerator = rand.New(randSource)
	randMutex     sync.Mutex
)

func GenerateRandomString(length int) string {
	randMutex.Lock()
	defer randMutex.Unlock()

	b := make([]byte, length)
	for i := range b {
		b[i] = charset[randGenerator.Intn(len(charset))]
	}
	return string(b)
}

// GenerateEventSlug tarih önekli rastgele slug üretir: 250820-aB3dE9fG
func GenerateEventSlug(now time.Time) string {
	return now.Format("060102") + "-" + GenerateRandomString(8)
}
