package extract

import (
	"strconv"
	"strings"
)

// Field names one column of a payment request
type Field string

const (
	FieldRequestNumber Field = "request_number"
	FieldPayeeCode     Field = "payee_code"
	FieldDate          Field = "date"
	FieldBeneficiary   Field = "beneficiary"
	FieldAmount        Field = "amount"
	FieldDescription   Field = "description"
)

// Fields lists every field in export order
var Fields = []Field{
	FieldRequestNumber,
	FieldPayeeCode,
	FieldDate,
	FieldBeneficiary,
	FieldAmount,
	FieldDescription,
}

// Values holds the raw field values produced by a rule
type Values map[Field]string

// Record is the structured result of one payment request document
type Record struct {
	FileName      string   `json:"file_name"`
	RequestNumber string   `json:"request_number,omitempty"`
	PayeeCode     string   `json:"payee_code,omitempty"`
	Date          string   `json:"date,omitempty"`
	Beneficiary   string   `json:"beneficiary,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Description   string   `json:"description,omitempty"`
	Source        string   `json:"source,omitempty"`
}

// HasAmount reports whether an amount was found
func (r Record) HasAmount() bool {
	return r.Amount != nil
}

// AmountString renders the amount with two decimals, or "" when absent
func (r Record) AmountString() string {
	if r.Amount == nil {
		return ""
	}
	return strconv.FormatFloat(*r.Amount, 'f', 2, 64)
}

// Get returns the display value of a field
func (r Record) Get(f Field) string {
	switch f {
	case FieldRequestNumber:
		return r.RequestNumber
	case FieldPayeeCode:
		return r.PayeeCode
	case FieldDate:
		return r.Date
	case FieldBeneficiary:
		return r.Beneficiary
	case FieldAmount:
		return r.AmountString()
	case FieldDescription:
		return r.Description
	default:
		return ""
	}
}

// set stores a raw rule value into the record. Amounts that do not parse are
// dropped.
func (r *Record) set(f Field, v string) {
	switch f {
	case FieldRequestNumber:
		r.RequestNumber = v
	case FieldPayeeCode:
		r.PayeeCode = v
	case FieldDate:
		r.Date = v
	case FieldBeneficiary:
		r.Beneficiary = v
	case FieldAmount:
		if amount, ok := parseAmount(v); ok {
			r.Amount = &amount
		}
	case FieldDescription:
		r.Description = v
	}
}

func (r Record) has(f Field) bool {
	if f == FieldAmount {
		return r.Amount != nil
	}
	return r.Get(f) != ""
}

func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
