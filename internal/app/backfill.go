package app

import (
	"context"
	"errors"

	"stock-alerts/internal/storage"
)

// Backfill 将历史 K 线数据回填到 quote_samples。
// Each candle becomes one sample; dry-run fetches without writing.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	if opts.Symbol == "" {
		return errors.New("--symbol must be provided")
	}
	if !opts.From.Before(opts.To) {
		return errors.New("回填范围为空，请检查 --from/--to")
	}

	var store *storage.Store
	if opts.DryRun {
		a.Logger.Warn().Msg("回填 dry-run：不会写入数据库")
	} else {
		var closeStore func()
		var err error
		store, closeStore, err = a.openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("database.dsn 未配置，无法回填")
		}
		defer closeStore()
	}

	fetcher := a.newQuoteClient()

	candles, err := fetcher.GetCandles(ctx, opts.Symbol, opts.Resolution, opts.From.UTC(), opts.To.UTC())
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		a.Logger.Info().Str("symbol", opts.Symbol).Msg("no candles in range")
		return nil
	}

	processed := 0
	failed := 0
	for i, candle := range candles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sample := storage.QuoteSample{
			Symbol:        opts.Symbol,
			SampleTS:      candle.Timestamp,
			Current:       candle.Close,
			High:          candle.High,
			Low:           candle.Low,
			Open:          candle.Open,
			PreviousClose: candle.Open,
		}
		if i > 0 {
			sample.PreviousClose = candles[i-1].Close
		}

		if store != nil {
			if err := store.InsertQuoteSample(ctx, sample); err != nil {
				failed++
				a.Logger.Error().Err(err).Time("sample_ts", sample.SampleTS).Msg("回填失败")
				continue
			}
		}
		processed++
	}

	a.Logger.Info().Int("processed", processed).Int("failed", failed).Str("symbol", opts.Symbol).Msg("回填完成")
	if failed > 0 {
		return errors.New("部分样本回填失败，请检查日志")
	}
	return nil
}
