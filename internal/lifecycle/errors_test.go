package lifecycle

import (
	"errors"
	"testing"
)

func TestErrorTaxonomyPredicatesAreDisjoint(t *testing.T) {
	cases := []struct {
		err  error
		pred func(error) bool
	}{
		{ErrBackendUnavailable(""), IsBackendUnavailable},
		{ErrLoadFailed("m1", errors.New("x")), IsLoadFailed},
		{ErrModelNotFound("m1"), IsModelNotFound},
		{ErrGenerationFailed("m1", errors.New("x")), IsGenerationFailed},
	}
	preds := []func(error) bool{IsBackendUnavailable, IsLoadFailed, IsModelNotFound, IsGenerationFailed}
	for i, c := range cases {
		for j, p := range preds {
			if got := p(c.err); got != (i == j) {
				t.Fatalf("case %d predicate %d: got %v", i, j, got)
			}
		}
	}
}

func TestWrappedErrorsUnwrap(t *testing.T) {
	cause := errors.New("cuda oom")
	if !errors.Is(ErrLoadFailed("m1", cause), cause) {
		t.Fatalf("load-failed should unwrap to its cause")
	}
	if !errors.Is(ErrGenerationFailed("m1", cause), cause) {
		t.Fatalf("generation-failed should unwrap to its cause")
	}
}

func TestErrorMessagesNameTheModel(t *testing.T) {
	if got := ErrModelNotFound("m1").Error(); got != "model not found: m1" {
		t.Fatalf("message: %q", got)
	}
	if got := ErrLoadFailed("m1", errors.New("boom")).Error(); got != "failed to load model m1: boom" {
		t.Fatalf("message: %q", got)
	}
}
