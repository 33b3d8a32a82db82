package password

import (
	"errors"
	"strings"
	"testing"
)

func TestHashers(t *testing.T) {
	hashers := map[string]Hasher{
		"bcrypt":   NewBcryptHasher(WithCost(4)),
		"argon2id": NewArgon2Hasher(WithArgon2Memory(8*1024), WithArgon2Threads(1)),
	}
	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("correct-horse")
			if err != nil {
				t.Fatalf("Hash: %v", err)
			}
			if hash == "correct-horse" {
				t.Fatal("hash must not equal the plain password")
			}
			if !h.Verify("correct-horse", hash) {
				t.Error("expected password to verify")
			}
			if h.Verify("wrong-horse", hash) {
				t.Error("wrong password must not verify")
			}
			if h.Verify("correct-horse", "not-a-hash") {
				t.Error("garbage hash must not verify")
			}
			if _, err := h.Hash("short"); !errors.Is(err, ErrTooShort) {
				t.Errorf("expected ErrTooShort, got %v", err)
			}
		})
	}
}

func TestBcryptRejectsLongPassword(t *testing.T) {
	_, err := NewBcryptHasher(WithCost(4)).Hash(strings.Repeat("a", 73))
	if !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

func TestArgon2HashFormat(t *testing.T) {
	hash, err := NewArgon2Hasher(WithArgon2Memory(8 * 1024)).Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=4$") {
		t.Errorf("unexpected encoding %q", hash)
	}
}

func TestConfig(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Algorithm != AlgorithmBcrypt || cfg.BcryptCost != 12 || cfg.MinLength != 8 {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	bad := Config{Algorithm: "md5"}
	bad.ApplyDefaults()
	if err := bad.Validate(); err == nil {
		t.Error("expected unsupported algorithm error")
	}

	if _, ok := NewHasher(Config{Algorithm: AlgorithmArgon2id}).(*Argon2Hasher); !ok {
		t.Error("expected argon2id hasher")
	}
	h := NewHasher(Config{BcryptCost: 4, MinLength: 3})
	if _, err := h.Hash("abc"); err != nil {
		t.Errorf("min length from config should apply: %v", err)
	}
}
