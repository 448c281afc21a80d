package firestore

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWrapErrorClassifiesGRPCCodes(t *testing.T) {
	cases := []struct {
		name        string
		code        codes.Code
		notFound    bool
		conflict    bool
		unavailable bool
	}{
		{name: "not found", code: codes.NotFound, notFound: true},
		{name: "already exists", code: codes.AlreadyExists, conflict: true},
		{name: "aborted", code: codes.Aborted, conflict: true},
		{name: "failed precondition", code: codes.FailedPrecondition, conflict: true},
		{name: "unavailable", code: codes.Unavailable, unavailable: true},
		{name: "resource exhausted", code: codes.ResourceExhausted, unavailable: true},
		{name: "unknown", code: codes.Unknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := WrapError("orders.get", status.Error(tc.code, "boom"))

			var repoErr *Error
			if !errors.As(wrapped, &repoErr) {
				t.Fatalf("WrapError returned %T, want *Error", wrapped)
			}
			if repoErr.IsNotFound() != tc.notFound {
				t.Fatalf("IsNotFound() = %v, want %v", repoErr.IsNotFound(), tc.notFound)
			}
			if repoErr.IsConflict() != tc.conflict {
				t.Fatalf("IsConflict() = %v, want %v", repoErr.IsConflict(), tc.conflict)
			}
			if repoErr.IsUnavailable() != tc.unavailable {
				t.Fatalf("IsUnavailable() = %v, want %v", repoErr.IsUnavailable(), tc.unavailable)
			}
		})
	}
}

func TestWrapErrorPassesContextErrorsThrough(t *testing.T) {
	if got := WrapError("op", context.Canceled); !errors.Is(got, context.Canceled) {
		t.Fatalf("WrapError(context.Canceled) = %v", got)
	}
	if got := WrapError("op", status.Error(codes.Canceled, "rpc cancelled")); !errors.Is(got, context.Canceled) {
		t.Fatalf("WrapError(grpc canceled) = %v", got)
	}
	if got := WrapError("op", context.DeadlineExceeded); !errors.Is(got, context.DeadlineExceeded) {
		t.Fatalf("WrapError(context.DeadlineExceeded) = %v", got)
	}
}

func TestWrapErrorKeepsExistingClassification(t *testing.T) {
	inner := WrapError("orders.get", status.Error(codes.NotFound, "missing"))
	outer := WrapError("orders.load", inner)

	var repoErr *Error
	if !errors.As(outer, &repoErr) {
		t.Fatalf("WrapError returned %T, want *Error", outer)
	}
	if !repoErr.IsNotFound() {
		t.Fatal("re-wrapped error lost its not-found classification")
	}
}

func TestWrapErrorNil(t *testing.T) {
	if got := WrapError("op", nil); got != nil {
		t.Fatalf("WrapError(nil) = %v, want nil", got)
	}
}

func TestErrorMessageIncludesOperation(t *testing.T) {
	err := WrapError("orders.get", status.Error(codes.NotFound, "missing"))
	if msg := err.Error(); msg == "" || msg[:10] != "orders.get" {
		t.Fatalf("message = %q, want orders.get prefix", msg)
	}
}
