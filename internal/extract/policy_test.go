package extract

import (
	"testing"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    Policy
		wantErr bool
	}{
		{"", PolicyRequestNumber, false},
		{"request", PolicyRequestNumber, false},
		{"Request-Or-Amount", PolicyRequestOrAmount, false},
		{" request-and-amount ", PolicyRequestAndAmount, false},
		{"either", PolicyRequestNumber, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePolicy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseAmountPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    AmountPolicy
		wantErr bool
	}{
		{"", AmountMaxOnPage, false},
		{"max", AmountMaxOnPage, false},
		{"MARKER", AmountAfterMarker, false},
		{"first", AmountMaxOnPage, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmountPolicy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmountPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAmountPolicy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolicyStringRoundTrip(t *testing.T) {
	for _, p := range []Policy{PolicyRequestNumber, PolicyRequestOrAmount, PolicyRequestAndAmount} {
		got, err := ParsePolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	for _, p := range []AmountPolicy{AmountMaxOnPage, AmountAfterMarker} {
		got, err := ParseAmountPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseAmountPolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
}

func TestRecordGet(t *testing.T) {
	amount := 1500.5
	rec := Record{
		RequestNumber: "SU0150109",
		PayeeCode:     "0019990",
		Date:          "1/2/2024",
		Beneficiary:   "Ahmed Ali",
		Amount:        &amount,
		Description:   "Office supplies order",
	}

	want := []string{"SU0150109", "0019990", "1/2/2024", "Ahmed Ali", "1500.50", "Office supplies order"}
	for i, f := range Fields {
		if got := rec.Get(f); got != want[i] {
			t.Errorf("Get(%s) = %v, want %v", f, got, want[i])
		}
	}
	if got := (Record{}).AmountString(); got != "" {
		t.Errorf("AmountString() = %q, want empty", got)
	}
}
