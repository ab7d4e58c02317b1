package services

import (
	"testing"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	out, err := Render("content", "Hi {name}, order {order.id} ships {name}", map[string]string{"name": "Jo", "order.id": "A-1"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Hi Jo, order A-1 ships Jo" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderRejectsUnresolvedPlaceholder(t *testing.T) {
	_, err := Render("content", "Hi {name}, your code is {code}", map[string]string{"name": "Jo"})
	verr, ok := err.(*models.ValidationError)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Field != "content" || verr.Reason != "unresolved placeholders: code" {
		t.Fatalf("unexpected error %+v", verr)
	}
}

func TestRenderIgnoresNonPlaceholderBraces(t *testing.T) {
	html := "<style>p { color: red }</style><p>{name}</p>"
	out, err := Render("content", html, map[string]string{"name": "Jo"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<style>p { color: red }</style><p>Jo</p>" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCatalogLookup(t *testing.T) {
	catalog := DefaultTemplates()
	for _, code := range []string{"WELCOME_TEMPLATE", "WELCOME_001"} {
		tpl, err := catalog.Lookup(code)
		if err != nil {
			t.Fatalf("lookup %s: %v", code, err)
		}
		if tpl.ProviderID != "WELCOME_001" {
			t.Fatalf("unexpected template %+v", tpl)
		}
	}
	if _, err := catalog.Lookup("NOPE"); !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProviderVariables(t *testing.T) {
	vars := providerVariables(map[string]string{"name": "Jo"})
	if vars["#{name}"] != "Jo" || len(vars) != 1 {
		t.Fatalf("unexpected variables %v", vars)
	}
	if providerVariables(nil) != nil {
		t.Fatal("expected nil for empty variables")
	}
}
