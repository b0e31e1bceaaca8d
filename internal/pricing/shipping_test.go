package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/checkout-bridge/pkg/enums"
)

func TestShippingOptionsPreferredFirst(t *testing.T) {
	opts := ShippingOptions(enums.ShippingTierExpress)
	require.Len(t, opts, 2)
	require.Equal(t, enums.ShippingTierExpress, opts[0].Tier)
	require.Equal(t, int64(1499), opts[0].AmountCents)
	require.Equal(t, int64(2), opts[0].MinDays)
	require.Equal(t, int64(3), opts[0].MaxDays)
	require.Equal(t, enums.ShippingTierStandard, opts[1].Tier)

	opts = ShippingOptions(enums.ShippingTierStandard)
	require.Equal(t, enums.ShippingTierStandard, opts[0].Tier)
	require.Equal(t, int64(599), opts[0].AmountCents)
	require.Equal(t, int64(5), opts[0].MinDays)
	require.Equal(t, int64(7), opts[0].MaxDays)
}
