package solana

import (
	"errors"
	"testing"

	"github.com/mr-tron/base58"
)

const wsolMint = "So11111111111111111111111111111111111111112"

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name  string
		addr  string
		valid bool
	}{
		{"wrapped sol", wsolMint, true},
		{"system program", "11111111111111111111111111111111", true},
		{"evm address", "0x6B175474E89094C44Da98b954EedeAC495271d0F", false},
		{"bad alphabet", "O0Il" + wsolMint[4:], false},
		{"too short", "abc", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("expected ErrInvalidAddress, got %v", err)
			}
		})
	}
}

func TestMetadataPDA_OffCurveAndDeterministic(t *testing.T) {
	first, err := MetadataPDA(wsolMint)
	if err != nil {
		t.Fatalf("MetadataPDA: %v", err)
	}

	second, err := MetadataPDA(wsolMint)
	if err != nil {
		t.Fatalf("MetadataPDA: %v", err)
	}

	if first != second {
		t.Errorf("PDA not deterministic: %s vs %s", first, second)
	}

	raw, err := base58.Decode(first)
	if err != nil || len(raw) != 32 {
		t.Fatalf("PDA is not a 32-byte key: %v", err)
	}

	if isOnCurve(raw) {
		t.Error("PDA must be off the ed25519 curve")
	}
}

func TestMetadataPDA_InvalidMint(t *testing.T) {
	if _, err := MetadataPDA("not-base58!"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}
