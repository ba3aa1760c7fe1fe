package settlement

import (
	"math/rand/v2"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/models"
)

// DrawReward picks a reward value uniformly from the campaign's inclusive
// [min, max] range. Values are cents, so every draw is exact to two decimal
// places and budget arithmetic never accumulates rounding error.
func DrawReward(min, max models.Amount) models.Amount {
	if max <= min {
		return min
	}
	return min + models.Amount(rand.Int64N(int64(max-min)+1))
}
