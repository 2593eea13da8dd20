package coa

import (
	"testing"

	"github.com/google/uuid"
)

func treeAccount(code, name string, class Classification) Account {
	return Account{
		ID:             uuid.New(),
		CompanyID:      1,
		Code:           code,
		Name:           name,
		Classification: class,
		Level:          DeriveLevel(code),
		Active:         true,
	}
}

func TestHeaderName(t *testing.T) {
	tree := NewTree([]Account{
		treeAccount("100-000-000-000", "Activo circulante", ClassificationHeader),
		treeAccount("100-001-000-000", "Caja", ClassificationPosting),
	})
	if got := tree.HeaderName("100"); got != "Activo circulante" {
		t.Fatalf("HeaderName(100) = %q, want Activo circulante", got)
	}
	if got := tree.HeaderName("200"); got != "" {
		t.Fatalf("HeaderName(200) = %q, want empty", got)
	}
}

func TestHeaderNameIgnoresPostingOnLevelOneCode(t *testing.T) {
	tree := NewTree([]Account{
		treeAccount("400-000-000-000", "Ventas directas", ClassificationPosting),
	})
	if got := tree.HeaderName("400"); got != "" {
		t.Fatalf("HeaderName(400) = %q, want empty for posting account", got)
	}
}
