package command

import "testing"

func BenchmarkTranslate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Translate(`task add "Write docs" -d "details"`)
	}
}

func BenchmarkTokenize_Quoted(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Tokenize(`memory search "socket timeout" --limit 20`)
	}
}
