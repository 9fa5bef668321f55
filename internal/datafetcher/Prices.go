/*

This file fetches current oracle price ratios from the price API. Prices
are scaled integers; the scale matches what the IL engine expects, so no
float conversion happens anywhere on this path.

*/

package datafetcher

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/shieldvault/ilguard/internal/types"
)

type poolPrice struct {
	PoolID      types.PoolID `json:"pool_id"`
	AssetAPrice sdkmath.Int  `json:"asset_a_price"` // Scaled oracle price
	AssetBPrice sdkmath.Int  `json:"asset_b_price"` // Scaled oracle price
}

type pricesResponse struct {
	Prices []poolPrice `json:"prices"`
}

// fetchCurrentRatios retrieves the latest oracle price ratio per pool.
func (c *Client) fetchCurrentRatios() (map[types.PoolID]types.AssetRatio, error) {
	body, err := c.getWithRetries(fmt.Sprintf("%s/v1/prices", c.priceURL))
	if err != nil {
		return nil, err
	}

	var parsed pricesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse prices response: %w", err)
	}

	ratios := make(map[types.PoolID]types.AssetRatio, len(parsed.Prices))
	for _, p := range parsed.Prices {
		if p.AssetAPrice.IsNil() || p.AssetBPrice.IsNil() || !p.AssetAPrice.IsPositive() || !p.AssetBPrice.IsPositive() {
			return nil, fmt.Errorf("pool %d: oracle prices must be strictly positive", p.PoolID)
		}
		ratios[p.PoolID] = types.AssetRatio{
			AssetAAmount: p.AssetAPrice,
			AssetBAmount: p.AssetBPrice,
		}
	}

	c.log.Debug().Int("pools", len(ratios)).Msg("Oracle price ratios retrieved")
	return ratios, nil
}
