package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tamirms/hashvault"
	"github.com/tamirms/hashvault/local"
)

func (a *app) fabric() (*local.Fabric, error) {
	comp, err := a.cfg.CompressionMode()
	if err != nil {
		return nil, err
	}
	return local.New(local.WithWorkers(a.cfg.Workers), local.WithCompression(comp)), nil
}

func (a *app) runGenerate(ctx context.Context) error {
	log := a.log.WithScope("GEN")
	algo, err := a.cfg.HashAlgorithm()
	if err != nil {
		return err
	}
	f, err := a.fabric()
	if err != nil {
		return err
	}

	total, err := hashvault.TotalRecords(a.cfg.Exponent)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Generating %d records to %s\n", total, a.cfg.Path)
	log.Infof("exponent=%d partitions=%d workers=%d hash=%s compression=%s",
		a.cfg.Exponent, a.cfg.Partitions, f.Workers(), algo, a.cfg.Compression)

	start := time.Now()
	res, err := hashvault.Generate(ctx, f, a.cfg.Path, a.cfg.Exponent,
		hashvault.WithPartitions(a.cfg.Partitions),
		hashvault.WithHash(algo))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	log.Infof("generated %d records in %d partitions", res.Records, res.Partitions)
	log.Debugf("generate %v, sort %v, save %v", res.GenerateDuration, res.SortDuration, res.SaveDuration)
	if s := elapsed.Seconds(); s > 0 {
		log.Infof("throughput %.2f M records/sec", float64(res.Records)/s/1e6)
	}
	fmt.Fprintf(a.out, "Total Time: %.3f seconds\n", elapsed.Seconds())
	return nil
}

func (a *app) runSearch(ctx context.Context) error {
	log := a.log.WithScope("SEARCH")
	f, err := a.fabric()
	if err != nil {
		return err
	}

	var opts []hashvault.SearchOption
	if a.cfg.Seed != 0 {
		opts = append(opts, hashvault.WithSeed(a.cfg.Seed))
	}
	log.Infof("searching %s for %d targets of %d bytes", a.cfg.Path, a.cfg.Searches, a.cfg.Difficulty)

	res, err := hashvault.Search(ctx, f, a.cfg.Path, a.cfg.Searches, a.cfg.Difficulty, opts...)
	if err != nil {
		return err
	}
	log.Debugf("scanned %d records", res.Records)

	fmt.Fprintf(a.out, "Found %d matches.\n", res.Matches)
	fmt.Fprintf(a.out, "Search Time: %.3f seconds\n", res.Duration.Seconds())
	return nil
}

func (a *app) runVerify(ctx context.Context) error {
	log := a.log.WithScope("VERIFY")
	ds, err := hashvault.OpenDataset(a.cfg.Path)
	if err != nil {
		return err
	}
	defer ds.Close()

	info := ds.Info()
	log.Infof("exponent=%d hash=%s compression=%s", info.Exponent, info.Hash, ds.Compression())

	if err := ds.Verify(); err != nil {
		return err
	}
	log.Debugf("checksums and order OK")
	if err := ds.VerifyHashes(ctx, a.cfg.Workers); err != nil {
		return err
	}
	if want, _ := hashvault.TotalRecords(info.Exponent); ds.Len() != want {
		log.Infof("dataset holds %d records, expected %d for exponent %d", ds.Len(), want, info.Exponent)
	}

	fmt.Fprintf(a.out, "Dataset OK: %d records in %d shards\n", ds.Len(), ds.NumShards())
	return nil
}
