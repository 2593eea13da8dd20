package coa

import (
	"fmt"
	"strconv"
	"strings"
)

// Account codes are four 3-digit segments joined by dashes, AAA-BBB-CCC-DDD.
// The segment depth doubles as the hierarchy level: a code is level 1 when
// segments 2-4 are zero, level 2 when 3-4 are zero, and so on. Display labels
// elsewhere mention a fifth sub-account level; the fixed 4-segment format has
// no representation for it and none is invented here.

const (
	codeSegments  = 4
	segmentDigits = 3
	codeDigits    = codeSegments * segmentDigits
)

// NormalizeCode strips non-digits, right-pads with zeros to twelve digits and
// re-groups the result as AAA-BBB-CCC-DDD. It never fails: garbage input
// collapses toward an all-zero suffix. Callers should still log anomalies.
func NormalizeCode(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			if digits.Len() == codeDigits {
				break
			}
		}
	}
	padded := digits.String() + strings.Repeat("0", codeDigits-digits.Len())

	parts := make([]string, codeSegments)
	for i := 0; i < codeSegments; i++ {
		parts[i] = padded[i*segmentDigits : (i+1)*segmentDigits]
	}
	return strings.Join(parts, "-")
}

// DeriveLevel reports the hierarchy depth (1-4) implied by the code's zero
// suffix. The input is normalised first, so both raw and formatted codes work.
func DeriveLevel(code string) int {
	segs := segments(NormalizeCode(code))
	for i := codeSegments - 1; i >= 1; i-- {
		if segs[i] != "000" {
			return i + 1
		}
	}
	return 1
}

// ParentCode returns the code obtained by zeroing the account's own trailing
// segment. The second return is false for level-1 codes, which have no parent.
func ParentCode(code string) (string, bool) {
	normalized := NormalizeCode(code)
	level := DeriveLevel(normalized)
	if level == 1 {
		return "", false
	}
	segs := segments(normalized)
	segs[level-1] = "000"
	return strings.Join(segs, "-"), true
}

// SuggestNextChildCode proposes the next free child code under parentCode.
// Only direct children count as siblings: a candidate must share the parent's
// prefix at exactly the next segment depth and be zero beyond it, so deeper
// descendants are never miscounted.
func SuggestNextChildCode(parentCode string, existingCodes []string) (string, error) {
	parent := NormalizeCode(parentCode)
	level := DeriveLevel(parent)
	if level >= codeSegments {
		return "", ErrLeafSegment
	}
	parentSegs := segments(parent)

	max := 0
	for _, raw := range existingCodes {
		segs := segments(NormalizeCode(raw))
		if !equalPrefix(segs, parentSegs, level) {
			continue
		}
		if segs[level] == "000" {
			continue
		}
		deeper := false
		for i := level + 1; i < codeSegments; i++ {
			if segs[i] != "000" {
				deeper = true
				break
			}
		}
		if deeper {
			continue
		}
		n, err := strconv.Atoi(segs[level])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	if max >= 999 {
		return "", ErrSegmentExhausted
	}

	childSegs := make([]string, codeSegments)
	copy(childSegs, parentSegs)
	childSegs[level] = fmt.Sprintf("%03d", max+1)
	for i := level + 1; i < codeSegments; i++ {
		childSegs[i] = "000"
	}
	return strings.Join(childSegs, "-"), nil
}

// ClassifyRubro maps the code's leading digit to its statement classification.
func ClassifyRubro(code string) Rubro {
	normalized := NormalizeCode(code)
	switch normalized[0] {
	case '1':
		return RubroAsset
	case '2':
		return RubroLiability
	case '3':
		return RubroEquity
	case '4':
		return RubroRevenue
	case '5':
		return RubroCost
	case '6':
		return RubroExpense
	default:
		return RubroOther
	}
}

// IsDebitNormal is the single canonical predicate for the debit/credit sign
// convention. The account's explicit nature wins; the leading-digit heuristic
// ({1,5,6} debit-normal) applies only when the nature is unavailable. Every
// other component must call this predicate instead of re-deriving nature.
func IsDebitNormal(a Account) bool {
	switch a.Nature {
	case NatureDebit:
		return true
	case NatureCredit:
		return false
	}
	switch ClassifyRubro(a.Code) {
	case RubroAsset, RubroCost, RubroExpense:
		return true
	default:
		return false
	}
}

// FirstSegment returns the leading 3-digit segment of a code.
func FirstSegment(code string) string {
	return segments(NormalizeCode(code))[0]
}

func segments(normalized string) []string {
	return strings.Split(normalized, "-")
}

func equalPrefix(a, b []string, n int) bool {
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
