package rule_test

import (
	"testing"

	"github.com/yeisme/notesphere/pkg/rule"
)

type signup struct {
	Email string  `json:"email" rule:"required,email"`
	Role  string  `json:"role"  rule:"role"`
	Score float64 `json:"score" rule:"rating"`
	Ext   string  `json:"ext"   rule:"filetype"`
}

func TestDomainRules(t *testing.T) {
	ok := signup{Email: "ama@example.edu", Role: "guest", Score: 4.5, Ext: "DOCX"}
	if err := rule.ValidateStruct(ok); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}

	bad := signup{Email: "nope", Role: "root", Score: 6, Ext: "exe"}

	errs := rule.Errors(rule.ValidateStruct(bad))
	if len(errs) != 4 {
		t.Fatalf("expected 4 field errors, got %v", errs)
	}

	for _, field := range []string{"email", "role", "score", "ext"} {
		if errs[field] == "" {
			t.Errorf("missing error for %s: %v", field, errs)
		}
	}

	if rule.Errors(nil) != nil {
		t.Error("nil error should produce no field errors")
	}
}
