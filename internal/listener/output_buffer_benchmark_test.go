package listener

import (
	"strings"
	"testing"
)

func BenchmarkCapturedStream_Write(b *testing.B) {
	quota := newOutputQuota(0, nil)
	stream := newCapturedStream(quota)
	p := []byte(strings.Repeat("a", 1024)) // 1KB chunk

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		stream.Write(p)
	}
}

func BenchmarkCapturedStream_Write_PastQuota(b *testing.B) {
	quota := newOutputQuota(16, nil)
	stream := newCapturedStream(quota)
	p := []byte(strings.Repeat("a", 1024))
	stream.Write(p) // trip the quota up front

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		stream.Write(p)
	}
}
