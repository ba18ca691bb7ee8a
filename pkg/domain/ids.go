// Package domain holds typed identifiers shared across modules.
//
// Records are keyed by database surrogate ids. Typing them keeps a CaseID from
// being passed where a BeneficiaryID is expected; parsing happens once at the
// HTTP boundary.
package domain

import (
	"strconv"
	"strings"

	dErrors "oncofeliz/pkg/domain-errors"
)

// maxIDLength bounds input before strconv sees it.
const maxIDLength = 19

type (
	CaseID        int64
	BeneficiaryID int64
	AidRequestID  int64
	UserID        int64
)

func (id CaseID) IsZero() bool        { return id == 0 }
func (id BeneficiaryID) IsZero() bool { return id == 0 }
func (id AidRequestID) IsZero() bool  { return id == 0 }
func (id UserID) IsZero() bool        { return id == 0 }

func (id CaseID) String() string        { return strconv.FormatInt(int64(id), 10) }
func (id BeneficiaryID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id AidRequestID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id UserID) String() string        { return strconv.FormatInt(int64(id), 10) }

func ParseCaseID(s string) (CaseID, error) {
	v, err := parsePositive(s, "case id")
	return CaseID(v), err
}

func ParseBeneficiaryID(s string) (BeneficiaryID, error) {
	v, err := parsePositive(s, "beneficiary id")
	return BeneficiaryID(v), err
}

func ParseAidRequestID(s string) (AidRequestID, error) {
	v, err := parsePositive(s, "aid request id")
	return AidRequestID(v), err
}

func ParseUserID(s string) (UserID, error) {
	v, err := parsePositive(s, "user id")
	return UserID(v), err
}

// parsePositive accepts only plain decimal digits: no sign, no whitespace.
func parsePositive(s, label string) (int64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if len(s) > maxIDLength || strings.TrimFunc(s, isDigit) != "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return v, nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
