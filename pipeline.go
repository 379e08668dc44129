package hashvault

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// GenerateResult summarizes a generation run.
type GenerateResult struct {
	Records    uint64
	Partitions int
	Hash       HashAlgorithm

	GenerateDuration time.Duration
	SortDuration     time.Duration
	SaveDuration     time.Duration
	Duration         time.Duration
}

// SearchResult summarizes a search run.
type SearchResult struct {
	Matches    uint64
	Targets    int
	Difficulty int
	Records    uint64

	// Duration covers broadcasting and filter+count, not loading.
	Duration time.Duration
}

// Generate produces the 2^exponent records, sorts them globally by hash
// prefix and persists them at path.
//
// Pipeline: plan → generate (one task per partition) → global sort → save.
// The sort is the only barrier: every partition must finish before the
// shuffle begins. The run is atomic; on error nothing is left at path.
func Generate(ctx context.Context, f Fabric, path string, exponent int, opts ...GenerateOption) (*GenerateResult, error) {
	cfg := defaultGenerateConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	ranges, err := Plan(exponent, cfg.partitions)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(cfg.hash)
	if err != nil {
		return nil, err
	}

	res := &GenerateResult{
		Partitions: len(ranges),
		Hash:       cfg.hash,
	}
	start := time.Now()

	records, err := f.ParallelMap(ctx, ranges, gen.Records)
	if err != nil {
		return nil, fmt.Errorf("generate records: %w", err)
	}
	res.GenerateDuration = time.Since(start)
	res.Records = records.Len()

	sortStart := time.Now()
	sorted, err := SortGlobal(ctx, f, records)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("sort records: %w", err), records.Close())
	}
	res.SortDuration = time.Since(sortStart)
	if err := records.Close(); err != nil {
		return nil, errors.Join(fmt.Errorf("release unsorted records: %w", err), sorted.Close())
	}

	saveStart := time.Now()
	info := DatasetInfo{Hash: cfg.hash, Exponent: exponent}
	if err := f.Save(ctx, sorted, path, info); err != nil {
		return nil, errors.Join(fmt.Errorf("save dataset: %w", err), sorted.Close())
	}
	res.SaveDuration = time.Since(saveStart)
	res.Duration = time.Since(start)

	return res, sorted.Close()
}

// Search loads the dataset at path and counts the records whose hash prefix
// starts with any of numSearches random targets of difficulty bytes.
//
// Difficulty is validated before any work. numSearches <= 0 short-circuits
// to zero matches without touching the dataset.
func Search(ctx context.Context, f Fabric, path string, numSearches, difficulty int, opts ...SearchOption) (*SearchResult, error) {
	if err := ValidateDifficulty(difficulty); err != nil {
		return nil, err
	}
	res := &SearchResult{Difficulty: difficulty}
	if numSearches <= 0 {
		return res, nil
	}

	cfg := &searchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.rng == nil {
		cfg.rng = processRand()
	}

	data, err := f.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	res.Records = data.Len()

	targets, err := GenerateTargets(cfg.rng, numSearches, difficulty)
	if err != nil {
		return nil, errors.Join(err, data.Close())
	}
	res.Targets = targets.Len()

	start := time.Now()
	matches, err := CountMatches(ctx, f, data, targets)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("count matches: %w", err), data.Close())
	}
	res.Duration = time.Since(start)
	res.Matches = matches

	return res, data.Close()
}
