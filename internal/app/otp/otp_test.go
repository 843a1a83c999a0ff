package otp

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/bahi-ledger/bahi/internal/domain"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	return New(NewMemoryStore(), nil, nil, DefaultTTL)
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	code, err := g.Issue(ctx, "9876543210")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(code) != 4 {
		t.Fatalf("code %q, want 4 digits", code)
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 1000 || n > 9999 {
		t.Fatalf("code %q outside [1000,9999]", code)
	}

	if err := g.Verify(ctx, "9876543210", code); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	// Single use: the same code must not verify twice.
	if err := g.Verify(ctx, "9876543210", code); !errors.Is(err, domain.ErrNoPendingCode) {
		t.Errorf("second Verify err = %v, want ErrNoPendingCode", err)
	}
}

func TestIssue_InvalidPhone(t *testing.T) {
	g := newTestGate(t)

	for _, phone := range []string{"12345", "abcdefghij", "", "+919876543210"} {
		if _, err := g.Issue(context.Background(), phone); !errors.Is(err, domain.ErrInvalidPhone) {
			t.Errorf("Issue(%q) err = %v, want ErrInvalidPhone", phone, err)
		}
	}
}

func TestIssue_OverwritesPriorCode(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	first, err := g.Issue(ctx, "9876543210")
	if err != nil {
		t.Fatalf("first Issue: %v", err)
	}
	second, err := g.Issue(ctx, "9876543210")
	if err != nil {
		t.Fatalf("second Issue: %v", err)
	}

	// The first code is dead once a second one is issued.
	if first != second {
		if err := g.Verify(ctx, "9876543210", first); !errors.Is(err, domain.ErrCodeMismatch) {
			t.Errorf("stale code err = %v, want ErrCodeMismatch", err)
		}
	}
	if err := g.Verify(ctx, "9876543210", second); err != nil {
		t.Errorf("live code Verify: %v", err)
	}
}

func TestVerify_NoPendingCode(t *testing.T) {
	g := newTestGate(t)

	err := g.Verify(context.Background(), "9876543210", "1234")
	if !errors.Is(err, domain.ErrNoPendingCode) {
		t.Errorf("err = %v, want ErrNoPendingCode", err)
	}
}

func TestVerify_Mismatch(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	code, err := g.Issue(ctx, "9876543210")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}
	if err := g.Verify(ctx, "9876543210", wrong); !errors.Is(err, domain.ErrCodeMismatch) {
		t.Errorf("err = %v, want ErrCodeMismatch", err)
	}

	// A mismatch does not consume the code.
	if err := g.Verify(ctx, "9876543210", code); err != nil {
		t.Errorf("correct code after mismatch: %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	code, err := g.Issue(ctx, "9876543210")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Advance the gate's clock past the TTL.
	g.now = func() time.Time { return time.Now().Add(DefaultTTL + time.Second) }

	if err := g.Verify(ctx, "9876543210", code); !errors.Is(err, domain.ErrCodeExpired) {
		t.Fatalf("err = %v, want ErrCodeExpired", err)
	}

	// Expiry purges the entry: even the correct code now has nothing to match.
	g.now = time.Now
	if err := g.Verify(ctx, "9876543210", code); !errors.Is(err, domain.ErrNoPendingCode) {
		t.Errorf("after purge err = %v, want ErrNoPendingCode", err)
	}
}

func TestGenerateCode_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode: %v", err)
		}
		n, err := strconv.Atoi(code)
		if err != nil || n < 1000 || n > 9999 {
			t.Fatalf("code %q outside [1000,9999]", code)
		}
	}
}
