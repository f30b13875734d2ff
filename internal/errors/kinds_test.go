package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestRepositoryWrapsOnce(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Repository("create entry", cause)
	if !IsRepository(err) {
		t.Fatalf("expected repository error, got %T", err)
	}
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}

	again := Repository("patch swap out", fmt.Errorf("retry: %w", err))
	var repoErr *RepositoryError
	if !stderrors.As(again, &repoErr) {
		t.Fatal("expected repository error in chain")
	}
	if repoErr.Op != "create entry" {
		t.Fatalf("expected original op to survive, got %q", repoErr.Op)
	}
}

func TestRepositoryNil(t *testing.T) {
	if Repository("noop", nil) != nil {
		t.Fatal("expected nil for nil cause")
	}
}
