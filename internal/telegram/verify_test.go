package telegram

import (
	"encoding/hex"
	"errors"
	"testing"
	"time"
)

const testBotToken = "8256079955:TESTTOKENTESTTOKEN"

func signedClaim(t *testing.T, v *Verifier, claim Claim) Claim {
	t.Helper()
	claim.Hash = hex.EncodeToString(v.computeTag(claim))
	return claim
}

func testVerifier(now time.Time, opts ...VerifierOption) *Verifier {
	opts = append([]VerifierOption{WithClock(func() time.Time { return now })}, opts...)
	return NewVerifier(testBotToken, opts...)
}

func TestVerifyAcceptsFreshSignedClaim(t *testing.T) {
	now := time.Unix(1760000000, 0)
	v := testVerifier(now)

	claim := signedClaim(t, v, Claim{
		ID:        426188469,
		Username:  "messiah_66",
		FirstName: "Messiah",
		AuthDate:  now.Add(-time.Minute).Unix(),
	})

	identity, err := v.Verify(claim)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if identity.TelegramID != 426188469 {
		t.Fatalf("unexpected telegram id: %d", identity.TelegramID)
	}
	if identity.Username != "messiah_66" || identity.FirstName != "Messiah" {
		t.Fatalf("identity fields not preserved: %+v", identity)
	}
}

func TestVerifyRejectsAlteredField(t *testing.T) {
	now := time.Unix(1760000000, 0)
	v := testVerifier(now)

	claim := signedClaim(t, v, Claim{
		ID:       426188469,
		Username: "messiah_66",
		AuthDate: now.Unix(),
	})
	claim.Username = "someone_else"

	if _, err := v.Verify(claim); !errors.Is(err, ErrTagMismatch) {
		t.Fatalf("expected ErrTagMismatch, got %v", err)
	}
}

func TestVerifyRejectsAlteredTag(t *testing.T) {
	now := time.Unix(1760000000, 0)
	v := testVerifier(now)

	claim := signedClaim(t, v, Claim{ID: 426188469, AuthDate: now.Unix()})
	// flip one hex digit
	last := claim.Hash[len(claim.Hash)-1]
	flip := byte('0')
	if last == '0' {
		flip = '1'
	}
	claim.Hash = claim.Hash[:len(claim.Hash)-1] + string(flip)

	if _, err := v.Verify(claim); !errors.Is(err, ErrTagMismatch) {
		t.Fatalf("expected ErrTagMismatch, got %v", err)
	}
}

func TestVerifyRejectsStaleClaimWithValidTag(t *testing.T) {
	now := time.Unix(1760000000, 0)
	v := testVerifier(now)

	claim := signedClaim(t, v, Claim{
		ID:       426188469,
		AuthDate: now.Add(-48 * time.Hour).Unix(),
	})

	if _, err := v.Verify(claim); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
}

func TestVerifyFreshnessWindowConfigurable(t *testing.T) {
	now := time.Unix(1760000000, 0)
	v := testVerifier(now, WithMaxAge(time.Hour))

	claim := signedClaim(t, v, Claim{
		ID:       426188469,
		AuthDate: now.Add(-2 * time.Hour).Unix(),
	})
	if _, err := v.Verify(claim); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale inside shrunken window, got %v", err)
	}

	claim = signedClaim(t, v, Claim{
		ID:       426188469,
		AuthDate: now.Add(-30 * time.Minute).Unix(),
	})
	if _, err := v.Verify(claim); err != nil {
		t.Fatalf("expected fresh claim to pass, got %v", err)
	}
}

func TestVerifyRejectsMissingTag(t *testing.T) {
	v := testVerifier(time.Unix(1760000000, 0))

	_, err := v.Verify(Claim{ID: 426188469, AuthDate: 1760000000})
	if !errors.Is(err, ErrMissingProof) {
		t.Fatalf("expected ErrMissingProof, got %v", err)
	}
}

func TestVerifyRejectsMalformedTag(t *testing.T) {
	v := testVerifier(time.Unix(1760000000, 0))

	_, err := v.Verify(Claim{ID: 426188469, AuthDate: 1760000000, Hash: "not-hex"})
	if !errors.Is(err, ErrMissingProof) {
		t.Fatalf("expected ErrMissingProof for malformed tag, got %v", err)
	}
}

func TestVerifyRejectsNonPositiveID(t *testing.T) {
	v := testVerifier(time.Unix(1760000000, 0))

	for _, id := range []int64{0, -5} {
		if _, err := v.Verify(Claim{ID: id}); !errors.Is(err, ErrInvalidClaim) {
			t.Fatalf("id=%d: expected ErrInvalidClaim, got %v", id, err)
		}
	}
}

func TestVerifyUnverifiedModeSkipsProof(t *testing.T) {
	v := testVerifier(time.Unix(1760000000, 0), WithAllowUnverified(true))

	identity, err := v.Verify(Claim{ID: 426188469, Username: " messiah_66 "})
	if err != nil {
		t.Fatalf("Verify in unverified mode: %v", err)
	}
	if identity.Username != "messiah_66" {
		t.Fatalf("expected trimmed username, got %q", identity.Username)
	}

	// shape validation still applies
	if _, err := v.Verify(Claim{}); !errors.Is(err, ErrInvalidClaim) {
		t.Fatalf("expected ErrInvalidClaim, got %v", err)
	}
}

func TestCheckStringOmitsAbsentFields(t *testing.T) {
	full := checkString(Claim{ID: 7, Username: "u", FirstName: "f", AuthDate: 99})
	if full != "auth_date=99\nfirst_name=f\nid=7\nusername=u" {
		t.Fatalf("unexpected check string: %q", full)
	}

	bare := checkString(Claim{ID: 7})
	if bare != "id=7" {
		t.Fatalf("unexpected bare check string: %q", bare)
	}
}
