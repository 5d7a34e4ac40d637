package api

import (
	"context"
	"fmt"
)

// GetAccountFunds fetches the balances of a wallet. An empty wallet means the
// account's default.
func (c *Client) GetAccountFunds(ctx context.Context, wallet string) (*AccountFunds, error) {
	var funds AccountFunds
	if err := c.call(ctx, c.accountsURL, methodGetAccountFunds, accountFundsParams{Wallet: wallet}, &funds); err != nil {
		return nil, fmt.Errorf("get account funds: %w", err)
	}
	return &funds, nil
}

// GBPFunds returns the available-to-bet balance of the UK wallet.
func (c *Client) GBPFunds(ctx context.Context) (float64, error) {
	funds, err := c.GetAccountFunds(ctx, WalletUK)
	if err != nil {
		return 0, err
	}
	return funds.AvailableToBetBalance, nil
}
