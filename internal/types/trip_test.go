package types

import "testing"

func TestParseTripType(t *testing.T) {
	cases := []struct {
		in   string
		want TripType
		ok   bool
	}{
		{"local", TripLocal, true},
		{" Outstation ", TripOutstation, true},
		{"airport-transfer", TripAirport, true},
		{"tour", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseTripType(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseTripType(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeVehicleID(t *testing.T) {
	cases := map[string]string{
		"Sedan":          "sedan",
		"Innova Crysta":  "innova_crysta",
		"innova-crysta":  "innova_crysta",
		" Tempo  Travel": "tempo_travel",
	}
	for in, want := range cases {
		if got := NormalizeVehicleID(in); got != want {
			t.Errorf("NormalizeVehicleID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFromRupees(t *testing.T) {
	m := FromRupees(2499.996)
	if m.Amount != 250000 || m.Currency != CurrencyINR {
		t.Fatalf("FromRupees = %+v", m)
	}
	if m.Rupees() != 2500 {
		t.Fatalf("Rupees = %v", m.Rupees())
	}
}
