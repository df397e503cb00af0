package validation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/lazylists/errors"
)

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("name", "adults")
	if v.HasErrors() {
		t.Error("expected no errors for valid input")
	}

	v2 := New()
	v2.Required("name", "")
	if !v2.HasErrors() {
		t.Error("expected error for empty required field")
	}

	v3 := New()
	v3.Required("name", "   ")
	if !v3.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorAt(t *testing.T) {
	v := New()
	stage := v.At("stages").At("[2]")
	stage.Min("n", -1, 0)
	stage.Required("fn", "")
	v.Required("name", "")

	want := []FieldError{
		{Field: "stages[2].n", Message: "must be at least 0"},
		{Field: "stages[2].fn", Message: "is required"},
		{Field: "name", Message: "is required"},
	}
	if diff := cmp.Diff(want, v.Errors()); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidatorPresentAbsent(t *testing.T) {
	v := New()
	v.Present("value", 0)
	v.Absent("keys", false)
	if v.HasErrors() {
		t.Errorf("unexpected errors: %v", v.Errors())
	}

	v.Present("value", nil)
	v.Absent("keys", true)
	if got := len(v.Errors()); got != 2 {
		t.Errorf("expected 2 errors, got %d", got)
	}
}

func TestValidatorNotEmpty(t *testing.T) {
	v := New()
	v.NotEmpty("keys", 1)
	if v.HasErrors() {
		t.Error("expected no error for non-empty list")
	}
	v.NotEmpty("keys", 0)
	if !v.HasErrors() {
		t.Error("expected error for empty list")
	}
}

func TestValidatorRange(t *testing.T) {
	v := New()
	v.Range("max_parallel", 4, 0, 1024)
	if v.HasErrors() {
		t.Error("expected no error for value in range")
	}

	v2 := New()
	v2.Range("max_parallel", -1, 0, 1024)
	if !v2.HasErrors() {
		t.Error("expected error for value below range")
	}

	v3 := New()
	v3.Range("max_parallel", 2048, 0, 1024)
	if !v3.HasErrors() {
		t.Error("expected error for value above range")
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"asc", "desc"}

	v := New()
	v.OneOf("direction", "asc", allowed)
	if v.HasErrors() {
		t.Error("expected no error for allowed value")
	}

	v2 := New()
	v2.OneOf("direction", "sideways", allowed)
	if !v2.HasErrors() {
		t.Error("expected error for disallowed value")
	}

	v3 := New()
	v3.OneOf("direction", "", allowed)
	if v3.HasErrors() {
		t.Error("expected no error for empty value (optional)")
	}
}

func TestValidatorIdentifier(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"isAdult", true},
		{"math.add", true},
		{"by-age_2", true},
		{"", true},
		{"2fast", false},
		{"has space", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v := New().Identifier("fn", tt.value)
			if v.HasErrors() == tt.ok {
				t.Errorf("Identifier(%q) errors = %v, want ok=%v", tt.value, v.Errors(), tt.ok)
			}
		})
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(true, "stages", "a barrier cannot be the last stage")
	if v.HasErrors() {
		t.Error("expected no error when condition is true")
	}

	v.Custom(false, "stages", "a barrier cannot be the last stage")
	if !v.HasErrors() {
		t.Error("expected error when condition is false")
	}
}

func TestValidatorValidate(t *testing.T) {
	v := New()
	if v.Validate() != nil || v.Err() != nil {
		t.Error("expected nil for a clean validator")
	}

	v.Required("op", "")
	v.Min("n", -3, 0)
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected AppError")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "op: is required") || !strings.Contains(appErr.Message, "n: must be at least 0") {
		t.Errorf("unexpected message: %s", appErr.Message)
	}
	if _, ok := appErr.Details["fields"]; !ok {
		t.Error("expected fields detail")
	}
}

type engineSection struct {
	MaxParallel int    `mapstructure:"max_parallel" validate:"gte=0"`
	Direction   string `mapstructure:"direction" validate:"omitempty,oneof=asc desc"`
}

type stageDef struct {
	Op string `yaml:"op" validate:"required,identifier"`
	N  *int   `yaml:"n,omitempty" validate:"omitempty,gte=0"`
}

type definitionDef struct {
	Name   string     `yaml:"name" validate:"required"`
	Stages []stageDef `yaml:"stages" validate:"min=1,dive"`
}

func TestStructValidateValid(t *testing.T) {
	n := 3
	def := definitionDef{Name: "adults", Stages: []stageDef{{Op: "take", N: &n}}}
	if err := Validate(def); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := Validate(engineSection{MaxParallel: 4, Direction: "asc"}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	n := -1
	def := definitionDef{Stages: []stageDef{{Op: "take", N: &n}, {Op: "bad op"}}}
	err := Validate(def)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	got := appErr.Details["fields"].([]FieldError)
	want := []FieldError{
		{Field: "name", Message: "is required"},
		{Field: "stages[0].n", Message: "must be greater than or equal to 0"},
		{Field: "stages[1].op", Message: "must be an identifier (letters, digits, '_', '.', '-')"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestStructValidateEmptyList(t *testing.T) {
	err := Validate(definitionDef{Name: "empty"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "stages: must contain at least 1 items") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestStructValidateMapstructureNames(t *testing.T) {
	err := Validate(engineSection{MaxParallel: -2, Direction: "up"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "max_parallel:") || !strings.Contains(msg, "direction: must be one of: asc desc") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestRequiredFunc(t *testing.T) {
	if err := Required("name", "adults"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := Required("name", ""); err == nil {
		t.Error("expected error for empty value")
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"MaxParallel": "max_parallel",
		"Name":        "name",
		"sampleRate":  "sample_rate",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
