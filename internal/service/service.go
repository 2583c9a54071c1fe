package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"flowscreen/internal/config"
	"flowscreen/internal/detector"
	"flowscreen/internal/ledger"
	"flowscreen/internal/tally"
)

// Stats summarises one screening run.
type Stats struct {
	Lines      int
	Valid      int
	Malformed  int
	Duplicates int
	Buckets    int
	Batches    int
	Flagged    int
	Entities   int
}

// Result carries the two output tables of a run.
type Result struct {
	RunID    uuid.UUID
	Flagged  []ledger.Record
	Entities []tally.EntityTally
	Stats    Stats
}

// Empty reports whether no valid record reached detection.
func (r Result) Empty() bool {
	return r.Stats.Valid == 0
}

// Service orchestrates parsing, batching, detection and aggregation.
type Service struct {
	parser      *ledger.Parser
	detector    *detector.Detector
	batcher     *detector.Batcher
	onDuplicate string
	logger      zerolog.Logger
}

// New constructs the screening service from the ledger configuration.
func New(cfg config.LedgerConfig, logger zerolog.Logger) *Service {
	onDuplicate := cfg.OnDuplicate
	if onDuplicate == "" {
		onDuplicate = config.DuplicateFail
	}

	return &Service{
		parser:      ledger.NewParser(cfg.Delimiter),
		detector:    detector.New(decimal.NewFromFloat(cfg.AmountRatio)),
		batcher:     detector.NewBatcher(cfg.BatchSize),
		onDuplicate: onDuplicate,
		logger:      logger.With().Str("component", "service").Logger(),
	}
}

// Screen runs the full pipeline over raw ledger lines.
func (s *Service) Screen(ctx context.Context, lines []string) (Result, error) {
	result := Result{
		RunID:    uuid.New(),
		Flagged:  []ledger.Record{},
		Entities: []tally.EntityTally{},
	}
	log := s.logger.With().Str("run_id", result.RunID.String()).Logger()

	store, err := s.load(lines, &result.Stats, log)
	if err != nil {
		return result, err
	}
	log.Info().Int("lines", result.Stats.Lines).
		Int("valid", result.Stats.Valid).
		Int("malformed", result.Stats.Malformed).
		Int("duplicates", result.Stats.Duplicates).
		Msg("ledger loaded")

	if store.Len() == 0 {
		log.Warn().Err(ledger.ErrEmptyInput).Msg("nothing to screen; emitting empty tables")
		return result, nil
	}

	store.SortByTimestamp()

	log.Info().Int("records", store.Len()).Int("batch_size", s.batcher.Size()).Msg("detection started")
	suspects := detector.NewSuspectSet()
	err = s.batcher.Each(store, func(batch detector.Batch) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		suspects.Merge(s.ProcessBatch(batch))
		result.Stats.Buckets += len(batch.Buckets)
		result.Stats.Batches++
		return nil
	})
	if err != nil {
		return result, err
	}

	result.Flagged = store.Select(suspects)
	result.Entities = tally.Aggregate(result.Flagged)
	result.Stats.Flagged = len(result.Flagged)
	result.Stats.Entities = len(result.Entities)

	log.Info().Int("buckets", result.Stats.Buckets).
		Int("batches", result.Stats.Batches).
		Int("flagged", result.Stats.Flagged).
		Int("entities", result.Stats.Entities).
		Msg("detection finished")
	return result, nil
}

// ProcessBatch detects every bucket of batch and returns the batch's suspects.
func (s *Service) ProcessBatch(batch detector.Batch) detector.SuspectSet {
	suspects := detector.NewSuspectSet()
	for _, bucket := range batch.Buckets {
		suspects.Merge(s.ProcessBucket(bucket))
	}
	s.logger.Debug().Int("batch", batch.Index).
		Int("buckets", len(batch.Buckets)).
		Int("records", batch.Records()).
		Int("suspects", suspects.Len()).
		Msg("batch processed")
	return suspects
}

// ProcessBucket 执行单个时间桶的检测逻辑。
func (s *Service) ProcessBucket(bucket ledger.Bucket) detector.SuspectSet {
	suspects := s.detector.Detect(bucket)
	if suspects.Len() > 0 {
		s.logger.Debug().Str("bucket", bucket.Date()).
			Int("records", len(bucket.Records)).
			Int("suspects", suspects.Len()).
			Msg("suspicious pass-through found")
	}
	return suspects
}

func (s *Service) load(lines []string, stats *Stats, log zerolog.Logger) (*ledger.Store, error) {
	store := ledger.NewStore()
	for i, line := range lines {
		stats.Lines++
		rec, err := s.parser.Check(line)
		if err != nil {
			stats.Malformed++
			log.Debug().Err(err).Int("line", i+1).Msg("dropping malformed record")
			continue
		}

		if err := store.Add(rec); err != nil {
			var dup *ledger.DuplicateKeyError
			if errors.As(err, &dup) && s.onDuplicate == config.DuplicateKeepFirst {
				stats.Duplicates++
				log.Warn().Str("transaction", dup.ID).Int("line", i+1).Msg("dropping duplicate transaction id")
				continue
			}
			return nil, fmt.Errorf("load line %d: %w", i+1, err)
		}
		stats.Valid++
	}
	return store, nil
}
