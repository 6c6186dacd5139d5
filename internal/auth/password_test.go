package auth

import "testing"

func TestValidPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"meets policy", "Password1", true},
		{"long with symbols", "Sup3r-Secret-Phrase", true},
		{"too short", "Pass1aA", false},
		{"no upper", "password1", false},
		{"no lower", "PASSWORD1", false},
		{"no digit", "Passwords", false},
		{"empty", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidPassword(tc.password); got != tc.want {
				t.Errorf("ValidPassword(%q) = %v, want %v", tc.password, got, tc.want)
			}
		})
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Password1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Password1" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !VerifyPassword("Password1", hash) {
		t.Error("correct password should verify")
	}
	if VerifyPassword("Password2", hash) {
		t.Error("wrong password must not verify")
	}
	if VerifyPassword("Password1", "not-a-bcrypt-hash") {
		t.Error("garbage hash must not verify")
	}
}
