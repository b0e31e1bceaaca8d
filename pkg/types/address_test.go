package types

import "testing"

func TestAddressIsZero(t *testing.T) {
	var nilAddr *Address
	if !nilAddr.IsZero() {
		t.Fatal("nil address should be zero")
	}
	if !(&Address{Country: "US"}).IsZero() {
		t.Fatal("country alone should count as zero")
	}
	if (&Address{Line1: "1 Main St", City: "New York"}).IsZero() {
		t.Fatal("address with line1 should not be zero")
	}
}
