// Package hashvault builds and searches sorted hash/nonce datasets.
//
// Every nonce n in [0, 2^k) is encoded as 6 big-endian bytes and hashed. The
// first 10 bytes of the digest and the nonce bytes form a 16-byte Record.
// Generate produces all 2^k records in parallel, sorts them globally by hash
// prefix and saves them. Search draws random target prefixes and counts the
// stored records that start with any of them.
//
// # Basic Usage
//
// Generating a dataset:
//
//	f := local.New()
//	res, err := hashvault.Generate(ctx, f, "output", 26)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Generated %d records in %v\n", res.Records, res.Duration)
//
// Searching it:
//
//	res, err := hashvault.Search(ctx, f, "output", 1000, 3)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Found %d matches.\n", res.Matches)
//
// # Package Structure
//
//   - Records: record.go (Record, nonce encoding), hasher.go (digest selection)
//   - Generation: planner.go (Plan, NonceRange), generator.go (Generator)
//   - Ordering: sort.go (SortKey, CompareKeys, SortGlobal)
//   - Search: search.go (TargetSet, GenerateTargets, CountMatches)
//   - Execution: fabric.go (Fabric interface), pipeline.go (Generate, Search);
//     the goroutine-pool fabric lives in the local subpackage
//   - Persistence: dataset_format.go (shard header/footer), dataset_writer.go
//     (CreateDataset, atomic commit), dataset.go (OpenDataset, Verify)
//   - Platform: fadvise_*.go, fallocate_*.go, prefault_*.go
package hashvault
