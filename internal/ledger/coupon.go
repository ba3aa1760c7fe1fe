package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// awardCouponSelector is the 4-byte function selector for
// awardCoupon(address,uint256,uint256): (recipient, campaignId, value).
var awardCouponSelector = crypto.Keccak256([]byte("awardCoupon(address,uint256,uint256)"))[:4]

// EncodeAwardCoupon encodes the awardCoupon(address,uint256,uint256) call.
// Returns 100 bytes: 4-byte selector + three 32-byte padded words.
func EncodeAwardCoupon(recipient common.Address, campaignID *big.Int, value *big.Int) []byte {
	data := make([]byte, 0, 100)
	data = append(data, awardCouponSelector...)
	data = append(data, common.LeftPadBytes(recipient.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(campaignID.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(value.Bytes(), 32)...)
	return data
}

// CouponTokenUnits converts a cent-denominated amount to on-chain token units.
// The coupon token carries a USDT-equivalent face value with 6 decimals, so
// one cent is 10^4 units.
func CouponTokenUnits(value models.Amount) *big.Int {
	units := big.NewInt(int64(value))
	return units.Mul(units, big.NewInt(10_000))
}

// BufferedGasPrice applies the gas price buffer (20% increase) to a suggested gas price.
func BufferedGasPrice(suggested *big.Int) *big.Int {
	buffered := new(big.Int).Mul(suggested, big.NewInt(int64(config.GasPriceBufferNumerator)))
	buffered.Div(buffered, big.NewInt(int64(config.GasPriceBufferDenominator)))
	return buffered
}

// ChainID returns the Kaia chain ID for the given network.
func ChainID(network string) *big.Int {
	if network == string(models.NetworkTestnet) {
		return big.NewInt(config.KaiaTestnetChainID)
	}
	return big.NewInt(config.KaiaMainnetChainID)
}
