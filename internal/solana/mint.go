package solana

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"token-safety-oracle/internal/domain"
)

// SPL Token Mint layout (82 bytes):
// - mintAuthority: COption<Pubkey> (4 + 32)
// - supply: u64 (8)
// - decimals: u8 (1)
// - isInitialized: bool (1)
// - freezeAuthority: COption<Pubkey> (4 + 32)
const (
	mintAccountSize       = 82
	mintAuthorityOffset   = 0
	supplyOffset          = 36
	decimalsOffset        = 44
	freezeAuthorityOffset = 46
)

// MintInspector reads SPL mint and Metaplex metadata accounts.
type MintInspector struct {
	rpc AccountReader
}

// NewMintInspector creates a new mint inspector.
func NewMintInspector(rpc AccountReader) *MintInspector {
	return &MintInspector{rpc: rpc}
}

// Inspect fetches the mint account and, when available, its Metaplex metadata.
// Returns nil, nil if the mint account does not exist.
func (m *MintInspector) Inspect(ctx context.Context, mint string) (*domain.ChainData, error) {
	if err := ValidateAddress(mint); err != nil {
		return nil, err
	}

	info, err := m.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("get mint account info: %w", err)
	}
	if info == nil {
		return nil, nil
	}

	data, err := parseMintData(info.Data)
	if err != nil {
		return nil, err
	}

	// Metadata is optional: many fresh mints never create it.
	pda, err := MetadataPDA(mint)
	if err == nil {
		metaInfo, err := m.rpc.GetAccountInfo(ctx, pda)
		if err == nil && metaInfo != nil {
			parseMetaplexData(metaInfo.Data, data)
		}
	}

	return data, nil
}

// parseMintData parses SPL Token Mint account data.
func parseMintData(encoded string) (*domain.ChainData, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode mint data: %w", err)
	}
	if len(decoded) < mintAccountSize {
		return nil, fmt.Errorf("mint data too short: %d", len(decoded))
	}

	supply := binary.LittleEndian.Uint64(decoded[supplyOffset : supplyOffset+8])
	decimals := int(decoded[decimalsOffset])

	return &domain.ChainData{
		MintAuthority:   binary.LittleEndian.Uint32(decoded[mintAuthorityOffset:]) == 1,
		FreezeAuthority: binary.LittleEndian.Uint32(decoded[freezeAuthorityOffset:]) == 1,
		Decimals:        decimals,
		Supply:          float64(supply) / math.Pow(10, float64(decimals)),
	}, nil
}

// parseMetaplexData parses name and symbol from Metaplex Token Metadata account data.
// Layout: key(1) | updateAuthority(32) | mint(32) | name(borsh string) | symbol(borsh string) | ...
func parseMetaplexData(encoded string, out *domain.ChainData) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return
	}
	if len(decoded) < 100 || decoded[0] != 4 { // MetadataV1 key
		return
	}

	offset := 65
	name, offset, ok := readBorshString(decoded, offset, 100)
	if !ok {
		return
	}
	if name != "" {
		out.Name = &name
	}

	symbol, _, ok := readBorshString(decoded, offset, 20)
	if ok && symbol != "" {
		out.Symbol = &symbol
	}
}

// readBorshString reads a u32-length-prefixed string, trimming NUL padding.
func readBorshString(data []byte, offset, maxLen int) (string, int, bool) {
	if offset+4 > len(data) {
		return "", offset, false
	}
	n := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	if n > maxLen || offset+n > len(data) {
		return "", offset, false
	}
	s := strings.TrimRight(string(data[offset:offset+n]), "\x00")
	return s, offset + n, true
}
