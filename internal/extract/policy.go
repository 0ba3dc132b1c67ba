package extract

import (
	"fmt"
	"strings"
)

// Policy decides whether a populated Record is kept
type Policy int

const (
	// PolicyRequestNumber keeps records that carry a request number
	PolicyRequestNumber Policy = iota
	// PolicyRequestOrAmount keeps records that carry a request number or an amount
	PolicyRequestOrAmount
	// PolicyRequestAndAmount keeps records that carry both
	PolicyRequestAndAmount
)

// Accept applies the policy to r
func (p Policy) Accept(r Record) bool {
	switch p {
	case PolicyRequestOrAmount:
		return r.RequestNumber != "" || r.HasAmount()
	case PolicyRequestAndAmount:
		return r.RequestNumber != "" && r.HasAmount()
	default:
		return r.RequestNumber != ""
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyRequestOrAmount:
		return "request-or-amount"
	case PolicyRequestAndAmount:
		return "request-and-amount"
	default:
		return "request"
	}
}

// ParsePolicy parses the configuration name of an acceptance policy
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "request":
		return PolicyRequestNumber, nil
	case "request-or-amount":
		return PolicyRequestOrAmount, nil
	case "request-and-amount":
		return PolicyRequestAndAmount, nil
	default:
		return PolicyRequestNumber, fmt.Errorf("unknown acceptance policy %q (must be one of: request, request-or-amount, request-and-amount)", s)
	}
}

// AmountPolicy selects how the amount is located on the page
type AmountPolicy int

const (
	// AmountMaxOnPage takes the largest currency-like number on the page
	AmountMaxOnPage AmountPolicy = iota
	// AmountAfterMarker takes the first number after an amount label
	AmountAfterMarker
)

func (p AmountPolicy) String() string {
	if p == AmountAfterMarker {
		return "marker"
	}
	return "max"
}

// ParseAmountPolicy parses the configuration name of an amount policy
func ParseAmountPolicy(s string) (AmountPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "max":
		return AmountMaxOnPage, nil
	case "marker":
		return AmountAfterMarker, nil
	default:
		return AmountMaxOnPage, fmt.Errorf("unknown amount policy %q (must be one of: max, marker)", s)
	}
}
