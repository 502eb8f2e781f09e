package checksum

import (
	"testing"
)

func TestGenerateContentHash(t *testing.T) {
	gen := NewGenerator()

	url := "https://news.yahoo.co.jp/articles/abc"
	title := "テスト記事"
	pages := []string{"一ページ目", "二ページ目"}
	published := "10/18(土) 9:00"

	hash1 := gen.GenerateContentHash(url, title, pages, published)
	hash2 := gen.GenerateContentHash(url, title, pages, published)

	// Хеш должен быть детерминированным
	if hash1 != hash2 {
		t.Errorf("Hash not deterministic: %s != %s", hash1, hash2)
	}

	// Хеш должен быть 64 символа (SHA256 hex)
	if len(hash1) != 64 {
		t.Errorf("Hash wrong length: %d, expected 64", len(hash1))
	}

	// Изменение контента должно изменить хеш
	hash3 := gen.GenerateContentHash(url, title, []string{"一ページ目"}, published)
	if hash1 == hash3 {
		t.Errorf("Hash should change when pages change")
	}
}
