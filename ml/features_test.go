package ml

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultRecordValues(t *testing.T) {
	want := []string{
		"Female", "No", "No", "No", "1", "No", "No", "No", "No", "No",
		"No", "No", "No", "No", "Month-to-Month", "No", "Electronic Check", "0", "0",
	}
	if diff := cmp.Diff(want, DefaultRecord().Values()); diff != "" {
		t.Fatalf("default values mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsUnknownCode(t *testing.T) {
	var v Vector
	v[4] = 1
	v[14] = 3 // contract has three choices
	if _, err := ChurnSchema().Decode(v); err == nil {
		t.Fatal("expected error for contract code 3")
	}
}

func TestRecordValuesKeepCharges(t *testing.T) {
	record := DefaultRecord()
	record.MonthlyCharges = 70.35
	record.TotalCharges = 1688.4

	values := record.Values()
	if values[17] != "70.35" || values[18] != "1688.4" {
		t.Fatalf("unexpected charge cells %q %q", values[17], values[18])
	}
}
