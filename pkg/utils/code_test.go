package utils

import (
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(8)
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if len(code) != 8 {
		t.Fatalf("len = %d, want 8", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Fatalf("code %q contains %q outside the alphabet", code, r)
		}
	}
}

func TestGenerateCodeRejectsNonPositiveLength(t *testing.T) {
	if _, err := GenerateCode(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestHashCodeRoundTrip(t *testing.T) {
	hash, err := HashCode("SECRET123")
	if err != nil {
		t.Fatalf("HashCode: %v", err)
	}
	if !CheckCode("SECRET123", hash) {
		t.Fatal("correct code rejected")
	}
	if CheckCode("WRONG", hash) {
		t.Fatal("wrong code accepted")
	}
}
