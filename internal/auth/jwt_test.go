package auth

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewManager("test-secret-key", 15*time.Minute, 14*24*time.Hour)

	tok, err := m.Encode(42, TokenAccess)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	id, typ, err := m.Decode(tok)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if id != 42 {
		t.Fatalf("subject mismatch: got %d, want 42", id)
	}
	if typ != TokenAccess {
		t.Fatalf("type mismatch: got %q, want access", typ)
	}
}

func TestDecode_RefreshType(t *testing.T) {
	t.Parallel()

	m := NewManager("test-secret-key", time.Minute, time.Hour)

	tok, err := m.Encode(7, TokenRefresh)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	_, typ, err := m.Decode(tok)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if typ != TokenRefresh {
		t.Fatalf("type mismatch: got %q, want refresh", typ)
	}
}

func TestDecode_Expired(t *testing.T) {
	t.Parallel()

	// negative TTL issues an already-expired token
	m := NewManager("test-secret-key", -1*time.Second, -1*time.Second)

	tok, err := m.Encode(7, TokenRefresh)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	_, _, err = m.Decode(tok)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewManager("right-secret", time.Minute, time.Hour)
	verifier := NewManager("wrong-secret", time.Minute, time.Hour)

	tok, err := issuer.Encode(7, TokenAccess)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	_, _, err = verifier.Decode(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	m := NewManager("test-secret-key", time.Minute, time.Hour)

	for _, tok := range []string{"", "Invalid", "not.a.jwt"} {
		_, _, err := m.Decode(tok)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Decode(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestPair_IssuesBothTokens(t *testing.T) {
	t.Parallel()

	m := NewManager("test-secret-key", time.Minute, time.Hour)

	pair, err := m.Pair(9)
	if err != nil {
		t.Fatalf("Pair error: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected non-empty pair, got %+v", pair)
	}

	// the two tokens must decode to the same subject with distinct types
	id, typ, err := m.Decode(pair.AccessToken)
	if err != nil || id != 9 || typ != TokenAccess {
		t.Fatalf("access decode: id=%d typ=%q err=%v", id, typ, err)
	}

	id, typ, err = m.Decode(pair.RefreshToken)
	if err != nil || id != 9 || typ != TokenRefresh {
		t.Fatalf("refresh decode: id=%d typ=%q err=%v", id, typ, err)
	}
}
