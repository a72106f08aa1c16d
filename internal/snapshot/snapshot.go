package snapshot

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"phantomImpact/internal/fixedpoint"
	"phantomImpact/internal/impact"
)

// PoolTypeStablePhantom is the only pool type the impact calculator supports.
const PoolTypeStablePhantom = "StablePhantom"

// ErrInvalidSnapshot marks a document that cannot be turned into a pool state.
var ErrInvalidSnapshot = errors.New("invalid pool snapshot")

// Meta carries the descriptive fields of a snapshot.
type Meta struct {
	PoolID   string
	PoolType string
	Tokens   []string
}

// Load reads and parses a snapshot file.
func Load(path string) (impact.PoolState, Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return impact.PoolState{}, Meta{}, fmt.Errorf("read snapshot: %w", err)
	}
	return Parse(data)
}

// Parse builds a pool state from a snapshot document:
//
//	{"id": "0x..", "poolType": "StablePhantom", "action": "join",
//	 "onchain": {"amp": "100", "swapFee": "0.001", "totalSupply": "<int>",
//	   "tokens": [{"address": "0x..", "balance": "<int>", "decimals": 18, "priceRate": "1"}],
//	   "linearPools": {"0x..": {"priceRate": "1.01"}}}}
//
// Integers may be decimal or 0x-prefixed hex. A token with a missing or
// null priceRate falls back to its linearPools entry and then to 1.
func Parse(data []byte) (impact.PoolState, Meta, error) {
	if !gjson.ValidBytes(data) {
		return impact.PoolState{}, Meta{}, fmt.Errorf("%w: malformed json", ErrInvalidSnapshot)
	}
	doc := gjson.ParseBytes(data)

	meta := Meta{
		PoolID:   doc.Get("id").String(),
		PoolType: doc.Get("poolType").String(),
	}
	if meta.PoolType == "" {
		meta.PoolType = PoolTypeStablePhantom
	}
	if meta.PoolType != PoolTypeStablePhantom {
		return impact.PoolState{}, Meta{}, fmt.Errorf("%w: unsupported pool type %q", ErrInvalidSnapshot, meta.PoolType)
	}

	kind, err := impact.ParseOperationKind(strings.ToLower(doc.Get("action").String()))
	if err != nil {
		return impact.PoolState{}, Meta{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	onchain := doc.Get("onchain")
	if !onchain.IsObject() {
		return impact.PoolState{}, Meta{}, fmt.Errorf("%w: missing onchain section", ErrInvalidSnapshot)
	}

	amp, err := parseDecimal(onchain.Get("amp"), "amp")
	if err != nil {
		return impact.PoolState{}, Meta{}, err
	}
	swapFee, err := parseDecimal(onchain.Get("swapFee"), "swapFee")
	if err != nil {
		return impact.PoolState{}, Meta{}, err
	}
	totalSupply, err := parseInt(onchain.Get("totalSupply"), "totalSupply")
	if err != nil {
		return impact.PoolState{}, Meta{}, err
	}

	tokens := onchain.Get("tokens").Array()
	if len(tokens) == 0 {
		return impact.PoolState{}, Meta{}, fmt.Errorf("%w: no tokens", ErrInvalidSnapshot)
	}
	linearPools := onchain.Get("linearPools")

	pool := impact.PoolState{
		Balances:    make([]*big.Int, len(tokens)),
		Decimals:    make([]uint8, len(tokens)),
		TotalSupply: totalSupply,
		Amp:         amp,
		SwapFee:     swapFee,
		PriceRates:  make([]decimal.NullDecimal, len(tokens)),
		Kind:        kind,
	}
	meta.Tokens = make([]string, len(tokens))

	for i, token := range tokens {
		address := token.Get("address").String()
		if address != "" && !common.IsHexAddress(address) {
			return impact.PoolState{}, Meta{}, fmt.Errorf("%w: token %d address %q", ErrInvalidSnapshot, i, address)
		}
		if address != "" {
			address = common.HexToAddress(address).Hex()
		}
		meta.Tokens[i] = address

		if pool.Balances[i], err = parseInt(token.Get("balance"), fmt.Sprintf("tokens.%d.balance", i)); err != nil {
			return impact.PoolState{}, Meta{}, err
		}
		if pool.Decimals[i], err = parseDecimals(token.Get("decimals"), i); err != nil {
			return impact.PoolState{}, Meta{}, err
		}

		rate := token.Get("priceRate")
		if (!rate.Exists() || rate.Type == gjson.Null) && address != "" && linearPools.IsObject() {
			rate = lookupLinearRate(linearPools, address)
		}
		if rate.Exists() && rate.Type != gjson.Null {
			value, err := parseDecimal(rate, fmt.Sprintf("tokens.%d.priceRate", i))
			if err != nil {
				return impact.PoolState{}, Meta{}, err
			}
			pool.PriceRates[i] = decimal.NewNullDecimal(value)
		}
	}

	return pool, meta, nil
}

func lookupLinearRate(linearPools gjson.Result, address string) gjson.Result {
	var found gjson.Result
	linearPools.ForEach(func(key, value gjson.Result) bool {
		if strings.EqualFold(key.String(), address) {
			found = value.Get("priceRate")
			return false
		}
		return true
	})
	return found
}

func parseDecimal(value gjson.Result, field string) (decimal.Decimal, error) {
	if !value.Exists() || value.Type == gjson.Null {
		return decimal.Zero, fmt.Errorf("%w: missing %s", ErrInvalidSnapshot, field)
	}
	raw := value.String()
	if value.Type == gjson.Number {
		raw = value.Raw
	}
	d, err := fixedpoint.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, field, err)
	}
	return d, nil
}

func parseInt(value gjson.Result, field string) (*big.Int, error) {
	raw := strings.TrimSpace(value.String())
	if value.Type == gjson.Number {
		raw = value.Raw
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidSnapshot, field)
	}
	n, ok := math.ParseBig256(raw)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s is not an unsigned 256-bit integer: %q", ErrInvalidSnapshot, field, raw)
	}
	return n, nil
}

func parseDecimals(value gjson.Result, index int) (uint8, error) {
	if !value.Exists() {
		return 0, fmt.Errorf("%w: missing tokens.%d.decimals", ErrInvalidSnapshot, index)
	}
	raw := value.String()
	if value.Type == gjson.Number {
		raw = value.Raw
	}
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: tokens.%d.decimals: %v", ErrInvalidSnapshot, index, err)
	}
	return uint8(n), nil
}
