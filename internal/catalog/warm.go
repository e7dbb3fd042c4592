package catalog

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Warm fetches the default game and giveaway listings concurrently so the
// first browser to ask is served from cache. Both fetches run to the end
// even if one fails; the first error is returned.
func Warm(ctx context.Context, games *Games, giveaways *Giveaways, log zerolog.Logger) error {
	var g errgroup.Group
	g.Go(func() error {
		start := time.Now()
		res, err := games.List(ctx, GameListParams{})
		if err != nil {
			log.Error().Err(err).Msg("warm games failed")
			return err
		}
		log.Info().Int("games", len(res.Data)).Bool("cached", res.FromCache).Bool("degraded", res.Degraded()).
			Dur("took", time.Since(start)).Msg("warmed games")
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		res, err := giveaways.List(ctx, GiveawayListParams{})
		if err != nil {
			log.Error().Err(err).Msg("warm giveaways failed")
			return err
		}
		log.Info().Int("giveaways", len(res.Data)).Bool("cached", res.FromCache).Bool("degraded", res.Degraded()).
			Dur("took", time.Since(start)).Msg("warmed giveaways")
		return nil
	})
	return g.Wait()
}
