package requestctx

import (
	"context"
	"testing"
)

func TestUserIDFromContextRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-42")
	if got := UserIDFromContext(ctx); got != "user-42" {
		t.Fatalf("UserIDFromContext = %q, want %q", got, "user-42")
	}
}

func TestUserIDFromContextEmpty(t *testing.T) {
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestFromContextNil(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract.
	if got := UserIDFromContext(nil); got != "" {
		t.Fatalf("expected empty user for nil context, got %q", got)
	}
	//nolint:staticcheck // nil context is part of the contract.
	if got := SessionIDFromContext(nil); got != "" {
		t.Fatalf("expected empty session for nil context, got %q", got)
	}
}

func TestWithUserIDNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract.
	ctx := WithUserID(nil, "user-99")
	if got := UserIDFromContext(ctx); got != "user-99" {
		t.Fatalf("UserIDFromContext = %q, want %q", got, "user-99")
	}
}

func TestSessionAndUserAreIndependent(t *testing.T) {
	ctx := WithSessionID(WithUserID(context.Background(), "u1"), "s1")
	if got := UserIDFromContext(ctx); got != "u1" {
		t.Fatalf("user = %q, want u1", got)
	}
	if got := SessionIDFromContext(ctx); got != "s1" {
		t.Fatalf("session = %q, want s1", got)
	}
}
