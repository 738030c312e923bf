package token

import (
	"testing"
	"time"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	signed, err := issuer.Generate("user_abc", "someone@example.com")
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	subject, err := issuer.ExtractSubject(signed)
	if err != nil {
		t.Fatalf("failed to extract subject: %v", err)
	}
	if subject != "user_abc" {
		t.Errorf("expected subject user_abc, got %q", subject)
	}
}

func TestIssuer_RejectsForeignSecret(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	other := NewIssuer("other-secret", time.Hour)

	signed, err := issuer.Generate("user_abc", "someone@example.com")
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := other.ExtractSubject(signed); err == nil {
		t.Error("a token signed with a different secret must not validate")
	}
}

func TestIssuer_RejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute)

	signed, err := issuer.Generate("user_abc", "someone@example.com")
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := issuer.ExtractSubject(signed); err == nil {
		t.Error("an expired token must not validate")
	}
}

func TestIssuer_RejectsGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	if _, err := issuer.ExtractSubject("not-a-token"); err == nil {
		t.Error("garbage input must not validate")
	}
}
