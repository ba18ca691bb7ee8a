// Package identifier issues the human-readable codes shown to staff and
// beneficiaries: B001 for beneficiaries and SOL-001 for aid requests.
//
// Codes are derived from monotonic sequences, so they never repeat. A
// rolled-back transaction leaves a gap, which is acceptable.
package identifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	dErrors "oncofeliz/pkg/domain-errors"
)

// Kind selects the code family.
type Kind string

const (
	KindBeneficiary Kind = "beneficiary"
	KindAidRequest  Kind = "aid_request"
)

func (k Kind) prefix() string {
	switch k {
	case KindBeneficiary:
		return "B"
	case KindAidRequest:
		return "SOL-"
	default:
		return ""
	}
}

// Sequence hands out the next number for a kind. Implementations must never
// return the same number twice for a kind.
type Sequence interface {
	NextValue(ctx context.Context, kind Kind) (int64, error)
}

// Generator formats sequence values into codes.
type Generator struct {
	seq Sequence
}

func New(seq Sequence) *Generator {
	return &Generator{seq: seq}
}

// Next returns a fresh code for kind.
func (g *Generator) Next(ctx context.Context, kind Kind) (string, error) {
	if kind.prefix() == "" {
		return "", dErrors.New(dErrors.CodeInternal, "unknown identifier kind")
	}
	n, err := g.seq.NextValue(ctx, kind)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate identifier")
	}
	return Format(kind, n), nil
}

// Format renders n with at least three digits: 7 becomes B007, 1000 becomes B1000.
func Format(kind Kind, n int64) string {
	return fmt.Sprintf("%s%03d", kind.prefix(), n)
}

// Parse checks that code is well formed for kind and returns its number.
func Parse(kind Kind, code string) (int64, error) {
	prefix := kind.prefix()
	if prefix == "" {
		return 0, dErrors.New(dErrors.CodeInternal, "unknown identifier kind")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	digits, ok := strings.CutPrefix(code, prefix)
	if !ok || len(digits) < 3 || len(digits) > 18 {
		return 0, dErrors.New(dErrors.CodeValidation, "malformed code: "+code)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 || strings.HasPrefix(digits, "+") {
		return 0, dErrors.New(dErrors.CodeValidation, "malformed code: "+code)
	}
	return n, nil
}

// Normalize returns code in canonical form, or a validation error.
func Normalize(kind Kind, code string) (string, error) {
	n, err := Parse(kind, code)
	if err != nil {
		return "", err
	}
	return Format(kind, n), nil
}
