package types

import "testing"

func TestNormalizePackageID(t *testing.T) {
	cases := map[string]string{
		"8hrs-80km":     Package8hrs80km,
		"8hr_80km":      Package8hrs80km,
		"08hrs-80km":    Package8hrs80km,
		"8hrs80km":      Package8hrs80km,
		"8 hours 80 km": Package8hrs80km,
		"4hr_40km":      Package4hrs40km,
		"04hrs-40km":    Package4hrs40km,
		"10hr_100km":    Package10hrs100km,
		"10 Hrs 100 KM": Package10hrs100km,
		"12hrs-120km":   "12hrs-120km",
		" Custom ":      "custom",
		"":              "",
	}
	for in, want := range cases {
		if got := NormalizePackageID(in); got != want {
			t.Errorf("NormalizePackageID(%q) = %q, want %q", in, got, want)
		}
	}
}
