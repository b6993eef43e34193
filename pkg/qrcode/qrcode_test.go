package qrcode

import (
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := Encode("GYM1A2B3C4D5", "MEMX1Y2Z3")

	p, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if p.GymID != "GYM1A2B3C4D5" {
		t.Errorf("GymID = %q", p.GymID)
	}
	if p.MemberID != "MEMX1Y2Z3" {
		t.Errorf("MemberID = %q", p.MemberID)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "not-a-qr-payload"},
		{"empty string", ""},
		{"missing member id", `{"gymId":"GYM1A2B3C4D5"}`},
		{"missing gym id", `{"memberId":"MEMX1Y2Z3"}`},
		{"empty object", `{}`},
		{"json array", `["GYM1A2B3C4D5","MEMX1Y2Z3"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); err != ErrMalformed {
				t.Errorf("Decode(%q) error = %v, want ErrMalformed", tt.data, err)
			}
		})
	}
}

func TestNewMemberID(t *testing.T) {
	id := NewMemberID()
	if !strings.HasPrefix(id, "MEM") {
		t.Errorf("member id %q missing MEM prefix", id)
	}
	if id != strings.ToUpper(id) {
		t.Errorf("member id %q not uppercase", id)
	}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewMemberID()
		if seen[id] {
			t.Fatalf("duplicate member id %q", id)
		}
		seen[id] = true
	}
}
