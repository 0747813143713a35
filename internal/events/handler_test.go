package events

import (
	"testing"

	"github.com/ai-show/backend/pkg/utils"
)

func TestHashedAdminCodeRotation(t *testing.T) {
	code := "ROTATED9K2QX"
	hash, err := hashedAdminCode(&code)
	if err != nil {
		t.Fatalf("hashedAdminCode: %v", err)
	}
	if hash == nil {
		t.Fatal("hash is nil for a supplied code")
	}
	if !utils.CheckCode(code, *hash) {
		t.Fatal("rotated code does not verify against its hash")
	}
	if utils.CheckCode("WRONGCODE123", *hash) {
		t.Fatal("wrong code verifies against rotated hash")
	}
}

func TestHashedAdminCodeNilLeavesHashUnchanged(t *testing.T) {
	hash, err := hashedAdminCode(nil)
	if err != nil {
		t.Fatalf("hashedAdminCode: %v", err)
	}
	if hash != nil {
		t.Fatalf("hash = %v, want nil so the stored hash is kept", *hash)
	}
}
