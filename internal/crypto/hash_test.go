package crypto

import "testing"

func TestHashPasswordFreshSalts(t *testing.T) {
	hash1, salt1, err := HashPassword("Password123!", GenerateSalt())
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}
	hash2, salt2, err := HashPassword("Password123!", GenerateSalt())
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	if salt1 == salt2 {
		t.Error("expected distinct salts for two generate-mode hashes")
	}
	if hash1 == hash2 {
		t.Error("expected distinct hashes under distinct salts")
	}
}

func TestHashPasswordSuppliedSaltIsDeterministic(t *testing.T) {
	hash1, salt, err := HashPassword("Password123!", GenerateSalt())
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	hash2, salt2, err := HashPassword("Password123!", WithSalt(salt))
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}
	if salt2 != salt {
		t.Errorf("WithSalt() salt = %q, want %q", salt2, salt)
	}
	if hash2 != hash1 {
		t.Errorf("re-derived hash = %q, want %q", hash2, hash1)
	}
}

func TestVerifyPassword(t *testing.T) {
	password := "Abc123!@"
	hash, salt, err := HashPassword(password, GenerateSalt())
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	match, err := VerifyPassword(password, salt, hash)
	if err != nil {
		t.Fatalf("VerifyPassword() unexpected error: %v", err)
	}
	if !match {
		t.Error("VerifyPassword() = false for correct password")
	}
}

func TestVerifyPasswordSingleCharacterMutations(t *testing.T) {
	password := "Abc123!@"
	hash, salt, err := HashPassword(password, GenerateSalt())
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	for i := 0; i < len(password); i++ {
		mutated := []byte(password)
		mutated[i] ^= 0x01
		match, err := VerifyPassword(string(mutated), salt, hash)
		if err != nil {
			t.Fatalf("VerifyPassword(%q) unexpected error: %v", mutated, err)
		}
		if match {
			t.Errorf("VerifyPassword(%q) = true, want false", mutated)
		}
	}
}

func TestVerifyPasswordBadSalt(t *testing.T) {
	match, err := VerifyPassword("Password123!", "!!!not-base64!!!", "whatever")
	if err == nil {
		t.Error("VerifyPassword() expected error for undecodable salt")
	}
	if match {
		t.Error("VerifyPassword() = true on infrastructure error")
	}
}
