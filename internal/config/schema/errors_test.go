package schema

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Path: "db.host", Message: "required field is missing"}
	if got := err.Error(); got != "db.host: required field is missing" {
		t.Errorf("Error() = %q", got)
	}

	err = &ValidationError{Message: "union has no field set"}
	if got := err.Error(); got != "union has no field set" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	if got := errs.Error(); got != "no validation errors" {
		t.Errorf("empty Error() = %q", got)
	}

	errs.Add("a", "first")
	if got := errs.Error(); got != "a: first" {
		t.Errorf("single Error() = %q", got)
	}

	errs.Add("b", "second")
	got := errs.Error()
	if !strings.HasPrefix(got, "2 validation errors:") || !strings.Contains(got, "b: second") {
		t.Errorf("multi Error() = %q", got)
	}
}

func TestValidationErrors_Merge(t *testing.T) {
	inner := &ValidationErrors{}
	inner.Add("host", "required field is missing")
	inner.Add("", "union has no field set")

	var outer ValidationErrors
	outer.Merge("db", inner)
	outer.Merge("x", nil)

	if outer.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", outer.Len())
	}
	if outer.Errors[0].Path != "db.host" {
		t.Errorf("Errors[0].Path = %q", outer.Errors[0].Path)
	}
	if outer.Errors[1].Path != "db" {
		t.Errorf("Errors[1].Path = %q", outer.Errors[1].Path)
	}
	if got := outer.ErrorsUnderPath("db"); len(got) != 2 {
		t.Errorf("ErrorsUnderPath(db) = %d errors", len(got))
	}
}

func TestValidationErrors_AsError(t *testing.T) {
	var errs ValidationErrors
	if errs.AsError() != nil {
		t.Error("AsError() on empty should be nil")
	}
	errs.Errors = append(errs.Errors, NewRequiredError("x"))
	if errs.AsError() == nil || !errs.HasErrors() {
		t.Error("AsError() should return self when errors exist")
	}
}
