package coa

import (
	"testing"

	"github.com/google/uuid"
)

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"100", "100-000-000-000"},
		{"100001", "100-001-000-000"},
		{"100-001-001-000", "100-001-001-000"},
		{"1 0 0 abc 002", "100-002-000-000"},
		{"", "000-000-000-000"},
		{"!!!", "000-000-000-000"},
		{"1234567890123456", "123-456-789-012"},
	}
	for _, tc := range cases {
		if got := NormalizeCode(tc.in); got != tc.want {
			t.Fatalf("NormalizeCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeCodeIdempotent(t *testing.T) {
	inputs := []string{"100", "100001", "abc", "999-999-999-999", "4"}
	for _, in := range inputs {
		once := NormalizeCode(in)
		if twice := NormalizeCode(once); twice != once {
			t.Fatalf("NormalizeCode not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestDeriveLevel(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{NormalizeCode("100"), 1},
		{NormalizeCode("100001"), 2},
		{"100-001-001-000", 3},
		{"100-001-001-001", 4},
		{"000-000-000-000", 1},
	}
	for _, tc := range cases {
		if got := DeriveLevel(tc.code); got != tc.want {
			t.Fatalf("DeriveLevel(%q) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestParentCode(t *testing.T) {
	if parent, ok := ParentCode("100-001-002-000"); !ok || parent != "100-001-000-000" {
		t.Fatalf("unexpected parent: %q ok=%v", parent, ok)
	}
	if parent, ok := ParentCode("100-001-000-000"); !ok || parent != "100-000-000-000" {
		t.Fatalf("unexpected parent: %q ok=%v", parent, ok)
	}
	if _, ok := ParentCode("100-000-000-000"); ok {
		t.Fatal("level 1 code should have no parent")
	}
}

func TestSuggestNextChildCode(t *testing.T) {
	got, err := SuggestNextChildCode("100-000-000-000", []string{"100-001-000-000", "100-002-000-000"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "100-003-000-000" {
		t.Fatalf("got %q, want 100-003-000-000", got)
	}
}

func TestSuggestNextChildCodeIgnoresDeeperDescendants(t *testing.T) {
	// 100-001-005-000 is a grandchild; it must not push the sibling numeral.
	got, err := SuggestNextChildCode("100-000-000-000", []string{
		"100-001-000-000",
		"100-001-005-000",
		"200-004-000-000",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "100-002-000-000" {
		t.Fatalf("got %q, want 100-002-000-000", got)
	}
}

func TestSuggestNextChildCodeFirstChild(t *testing.T) {
	got, err := SuggestNextChildCode("200-000-000-000", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "200-001-000-000" {
		t.Fatalf("got %q, want 200-001-000-000", got)
	}
}

func TestSuggestNextChildCodeLeaf(t *testing.T) {
	if _, err := SuggestNextChildCode("100-001-001-001", nil); err != ErrLeafSegment {
		t.Fatalf("expected ErrLeafSegment, got %v", err)
	}
}

func TestClassifyRubro(t *testing.T) {
	cases := map[string]Rubro{
		"100": RubroAsset,
		"200": RubroLiability,
		"300": RubroEquity,
		"400": RubroRevenue,
		"500": RubroCost,
		"600": RubroExpense,
		"700": RubroOther,
		"900": RubroOther,
		"":    RubroOther,
	}
	for code, want := range cases {
		if got := ClassifyRubro(code); got != want {
			t.Fatalf("ClassifyRubro(%q) = %s, want %s", code, got, want)
		}
	}
}

func TestIsDebitNormal(t *testing.T) {
	// Explicit nature wins over the leading-digit heuristic.
	if IsDebitNormal(Account{Code: "100-000-000-000", Nature: NatureCredit}) {
		t.Fatal("explicit credit nature must win over asset code")
	}
	if !IsDebitNormal(Account{Code: "200-000-000-000", Nature: NatureDebit}) {
		t.Fatal("explicit debit nature must win over liability code")
	}
	// Heuristic fallback when nature is unavailable.
	for code, want := range map[string]bool{
		"100": true, "500": true, "600": true,
		"200": false, "300": false, "400": false, "700": false,
	} {
		if got := IsDebitNormal(Account{Code: code}); got != want {
			t.Fatalf("IsDebitNormal heuristic for %q = %v, want %v", code, got, want)
		}
	}
}

func TestTreeHierarchy(t *testing.T) {
	accounts := []Account{
		{ID: uuid.New(), Code: "100-000-000-000", Name: "Activo circulante", Classification: ClassificationHeader},
		{ID: uuid.New(), Code: "100-001-000-000", Name: "Caja", Classification: ClassificationPosting},
		{ID: uuid.New(), Code: "100-002-000-000", Name: "Bancos", Classification: ClassificationPosting},
		{ID: uuid.New(), Code: "200-000-000-000", Name: "Pasivo", Classification: ClassificationHeader},
	}
	tree := NewTree(accounts)

	if len(tree.Roots()) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree.Roots()))
	}
	node, ok := tree.ByCode("100001")
	if !ok {
		t.Fatal("expected lookup by unformatted code to succeed")
	}
	if node.Parent == nil || node.Parent.Account.Code != "100-000-000-000" {
		t.Fatalf("unexpected parent for %s", node.Account.Code)
	}
	if name := tree.HeaderName("100"); name != "Activo circulante" {
		t.Fatalf("unexpected header name %q", name)
	}
	if name := tree.HeaderName("300"); name != "" {
		t.Fatalf("expected empty header name, got %q", name)
	}
}
