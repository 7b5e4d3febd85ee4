package utils

import "testing"

func TestHashAndComparePassword(t *testing.T) {
	hashed, err := HashPassword("devops-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	// The hash is stored as a string column; the roundtrip must survive the
	// []byte -> string conversion.
	stored := string(hashed)
	if err := ComparePassword(stored, "devops-password"); err != nil {
		t.Fatalf("ComparePassword(correct): %v", err)
	}
	if err := ComparePassword(stored, "wrong-password"); err == nil {
		t.Fatal("ComparePassword accepted a wrong password")
	}
}
