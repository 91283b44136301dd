package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeEmptyTable, "symbol table has no scopes")
		if err.Error() != "[EMPTY_TABLE] symbol table has no scopes" {
			t.Errorf("expected [EMPTY_TABLE] symbol table has no scopes, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeDuplicateName, "x already declared")
		if !IsCode(err, CodeDuplicateName) {
			t.Error("expected IsCode to return true for CodeDuplicateName")
		}
		if IsCode(err, CodeInvalidArgument) {
			t.Error("expected IsCode to return false for CodeInvalidArgument")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("line 3: %w", New(CodeEmptyTable, "no scopes"))
		if !IsCode(err, CodeEmptyTable) {
			t.Error("expected IsCode to see through fmt.Errorf wrapping")
		}
		if CodeOf(err) != CodeEmptyTable {
			t.Errorf("expected CodeOf=EMPTY_TABLE, got %q", CodeOf(err))
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeDuplicateName, "already declared"), CtxName, "x")
		expected := "[DUPLICATE_NAME] already declared map[name:x]"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}

		foreign := AddContext(errors.New("boom"), CtxOperation, "scan")
		if !IsCode(foreign, CodeInternal) {
			t.Errorf("expected foreign error to be wrapped as internal, got %v", foreign)
		}
	})

	t.Run("CodeOfPlainError", func(t *testing.T) {
		if CodeOf(errors.New("plain")) != "" {
			t.Error("expected empty code for plain error")
		}
	})
}
