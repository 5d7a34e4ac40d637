package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/betfair-exchange/internal/api"
)

const defaultDemoCompetition = "English Premier League"

func newDemoCommand(a *app) *cobra.Command {
	var competition string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run two sessions side by side and walk a football market",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.demo(cmd, competition)
		},
	}

	cmd.Flags().StringVar(&competition, "competition", defaultDemoCompetition, "Competition to look up")
	return cmd
}

func (a *app) demo(cmd *cobra.Command, competition string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()

	username, password, err := a.identity(cmd)
	if err != nil {
		return err
	}

	var first, second *conn
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := a.connect(gctx, "first", username, password, newProbeMonitor(a.logger))
		first = c
		return err
	})
	g.Go(func() error {
		c, err := a.connect(gctx, "second", username, password, newProbeMonitor(a.logger))
		second = c
		return err
	})
	err = g.Wait()
	defer func() {
		for _, c := range []*conn{first, second} {
			if c != nil {
				c.shutdown(true)
			}
		}
	}()
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(out, "Interrupted, exiting")
			return nil
		}
		return err
	}

	for _, c := range []*conn{first, second} {
		state := c.session.State()
		fmt.Fprintln(out, state.LoginStatus, state.Token)
	}

	err = runDemo(ctx, out, first.api, second.api, competition)
	if ctx.Err() != nil {
		fmt.Fprintln(out, "Interrupted, exiting")
		return nil
	}
	return err
}

// runDemo looks up the competition's games, resolves the first game's
// MATCH_ODDS market with the first client and the second game's with the
// other client.
func runDemo(ctx context.Context, out io.Writer, first, second *api.Client, competition string) error {
	funds, err := first.GBPFunds(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Available to bet: %s\n", formatPence(api.MoneyToPence(funds)))

	comps, err := first.FootballCompetitions(ctx)
	if err != nil {
		return err
	}
	var competitionID string
	for _, c := range comps {
		if c.Name == competition {
			competitionID = c.ID
			break
		}
	}
	if competitionID == "" {
		return fmt.Errorf("competition %q not found", competition)
	}

	games, err := first.FootballGames(ctx, competitionID)
	if err != nil {
		return err
	}
	if err := printEvents(out, games); err != nil {
		return err
	}
	if len(games) == 0 {
		return fmt.Errorf("no games in %q", competition)
	}

	game := games[0]
	fmt.Fprintln(out, "Game name:", game.Name)

	market, err := first.MarketCatalogue(ctx, game.ID, api.MarketTypeMatchOdds)
	if err != nil {
		return err
	}
	desc, err := first.GameDescription(ctx, market.MarketID)
	if err != nil {
		return err
	}
	if runners := desc.SortedRunners(); len(runners) > 0 {
		fmt.Fprintf(out, "Home team: %s (selection %d)\n", runners[0].RunnerName, runners[0].SelectionID)
	}

	books, err := first.ListMarketBook(ctx, market.MarketID)
	if err != nil {
		return err
	}
	now := api.NowMicro()
	for i := range books {
		if err := printSnapshot(out, books[i].ToSnapshot(now)); err != nil {
			return err
		}
	}

	if len(games) < 2 {
		return nil
	}
	market2, err := second.MarketCatalogue(ctx, games[1].ID, api.MarketTypeMatchOdds)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Second game: %s %s\n", games[1].Name, market2.MarketID)
	return nil
}
