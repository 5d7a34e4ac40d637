package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgao/betfair-exchange/internal/api"
	"github.com/rickgao/betfair-exchange/internal/version"
)

func newLoginCommand(a *app) *cobra.Command {
	var logout bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			username, password, err := a.identity(cmd)
			if err != nil {
				return err
			}
			c, err := a.connect(ctx, "main", username, password, nil)
			if err != nil {
				return err
			}
			// The token stays valid after exit unless --logout is given.
			defer c.shutdown(logout)

			state := c.session.State()
			fmt.Fprintln(cmd.OutOrStdout(), state.LoginStatus, state.Token)
			return nil
		},
	}

	cmd.Flags().BoolVar(&logout, "logout", false, "Log out again before exiting")
	return cmd
}

func newFundsCommand(a *app) *cobra.Command {
	var wallet string

	cmd := &cobra.Command{
		Use:   "funds",
		Short: "Show account funds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, c *conn) error {
				funds, err := c.api.GetAccountFunds(ctx, wallet)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintf(tw, "wallet\t%s\n", funds.Wallet)
				fmt.Fprintf(tw, "available\t%s\n", formatPence(api.MoneyToPence(funds.AvailableToBetBalance)))
				fmt.Fprintf(tw, "exposure\t%s\n", formatPence(api.MoneyToPence(funds.Exposure)))
				fmt.Fprintf(tw, "exposure limit\t%s\n", formatPence(api.MoneyToPence(funds.ExposureLimit)))
				fmt.Fprintf(tw, "retained commission\t%s\n", formatPence(api.MoneyToPence(funds.RetainedCommission)))
				fmt.Fprintf(tw, "discount rate\t%.2f\n", funds.DiscountRate)
				fmt.Fprintf(tw, "points\t%d\n", funds.PointsBalance)
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", api.WalletUK, "Wallet to query")
	return cmd
}

func newCompetitionsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "competitions",
		Short: "List football competitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, c *conn) error {
				comps, err := c.api.FootballCompetitions(ctx)
				if err != nil {
					return err
				}
				return printCompetitions(cmd.OutOrStdout(), comps)
			})
		},
	}
}

func newGamesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "games <competition-id>",
		Short: "List the football games in a competition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, c *conn) error {
				games, err := c.api.FootballGames(ctx, args[0])
				if err != nil {
					return err
				}
				return printEvents(cmd.OutOrStdout(), games)
			})
		},
	}
}

func newCatalogueCommand(a *app) *cobra.Command {
	var marketType string

	cmd := &cobra.Command{
		Use:   "catalogue <event-id>",
		Short: "Find an event's market of a given type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, c *conn) error {
				m, err := c.api.MarketCatalogue(ctx, args[0], marketType)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", m.MarketID, m.MarketName)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&marketType, "market-type", api.MarketTypeMatchOdds, "Market type code")
	return cmd
}

func newDescribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <market-id>",
		Short: "List a market's runners in sort order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, c *conn) error {
				m, err := c.api.GameDescription(ctx, args[0])
				if err != nil {
					return err
				}
				return printRunners(cmd.OutOrStdout(), m)
			})
		},
	}
}

func newBookCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "book <market-id>...",
		Short: "Show best prices for up to 40 markets",
		Args:  cobra.RangeArgs(1, api.MaxMarketBookIDs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, c *conn) error {
				books, err := c.api.ListMarketBook(ctx, args...)
				if err != nil {
					return err
				}
				now := api.NowMicro()
				for i := range books {
					if err := printSnapshot(cmd.OutOrStdout(), books[i].ToSnapshot(now)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "betfair", version.String())
		},
	}
}
