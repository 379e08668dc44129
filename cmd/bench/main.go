// Bench measures hashvault record generation, global sort and search
// throughput, next to non-cryptographic hash baselines over the same
// nonce bytes.
//
// Usage:
//
//	go run ./cmd/bench -k 22 -workers 8
//
// Flags:
//
//	-k           Generate 2^k records (default: 22)
//	-workers     Number of parallel workers (default: NumCPU)
//	-difficulty  Search target length in bytes (default: 3)
//	-searches    Number of search targets (default: 1000)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"

	"github.com/tamirms/hashvault"
	"github.com/tamirms/hashvault/local"
)

// getMaxRSS returns the maximum resident set size in bytes.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

type row struct {
	name     string
	duration time.Duration
	records  uint64
}

func (r row) print() {
	rate := 0.0
	if s := r.duration.Seconds(); s > 0 {
		rate = float64(r.records) / s / 1_000_000
	}
	fmt.Printf("║ %-20s║ %8.3f sec   ║ %8.2f M/sec    ║\n", r.name, r.duration.Seconds(), rate)
}

func main() {
	kFlag := flag.Int("k", 22, "generate 2^k records")
	workersFlag := flag.Int("workers", runtime.NumCPU(), "number of parallel workers")
	difficultyFlag := flag.Int("difficulty", 3, "search target length in bytes")
	searchesFlag := flag.Int("searches", 1000, "number of search targets")
	flag.Parse()

	total, err := hashvault.TotalRecords(*kFlag)
	if err != nil {
		fmt.Printf("Invalid -k: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	var rows []row

	// Hash-only throughput, single goroutine.
	var nonce [hashvault.NonceSize]byte
	for _, algo := range []hashvault.HashAlgorithm{hashvault.HashBlake3, hashvault.HashBlake2b, hashvault.HashSHA3} {
		gen, err := hashvault.NewGenerator(algo)
		if err != nil {
			fmt.Printf("NewGenerator failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Hashing %d nonces with %s...\n", total, algo)
		seq, err := gen.Records(hashvault.NonceRange{Start: 0, End: total})
		if err != nil {
			fmt.Printf("Records failed: %v\n", err)
			os.Exit(1)
		}
		start := time.Now()
		var sink byte
		for rec := range seq {
			sink ^= rec[0]
		}
		rows = append(rows, row{name: algo.String(), duration: time.Since(start), records: total})
		_ = sink
	}

	fmt.Println("Hashing baselines...")
	start := time.Now()
	var sink64 uint64
	for n := range total {
		_ = hashvault.PutNonce(nonce[:], n) // n < 2^k <= 2^48
		h1, _ := murmur3.Sum128WithSeed(nonce[:], 0x1234)
		sink64 ^= h1
	}
	rows = append(rows, row{name: "murmur3 (baseline)", duration: time.Since(start), records: total})
	start = time.Now()
	for n := range total {
		_ = hashvault.PutNonce(nonce[:], n)
		sink64 ^= xxh3.Hash(nonce[:])
	}
	rows = append(rows, row{name: "xxh3 (baseline)", duration: time.Since(start), records: total})
	_ = sink64

	tmpDir, err := os.MkdirTemp("", "bench-")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	path := filepath.Join(tmpDir, "output")

	baselineRSS := getMaxRSS()
	f := local.New(local.WithWorkers(*workersFlag))

	fmt.Println("Running generate pipeline...")
	gres, err := hashvault.Generate(ctx, f, path, *kFlag)
	if err != nil {
		fmt.Printf("Generate failed: %v\n", err)
		return
	}
	rows = append(rows,
		row{name: "generate (parallel)", duration: gres.GenerateDuration, records: gres.Records},
		row{name: "global sort", duration: gres.SortDuration, records: gres.Records},
		row{name: "save", duration: gres.SaveDuration, records: gres.Records},
		row{name: "pipeline total", duration: gres.Duration, records: gres.Records},
	)
	peakRSS := getMaxRSS() - baselineRSS

	fmt.Println("Running search pipeline...")
	sres, err := hashvault.Search(ctx, f, path, *searchesFlag, *difficultyFlag, hashvault.WithSeed(1))
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		return
	}
	rows = append(rows, row{name: "search", duration: sres.Duration, records: sres.Records})

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╦══════════════════╗\n")
	fmt.Printf("║ k: %-17d║ Workers: %-6d║ Records: %-8d║\n", *kFlag, f.Workers(), total)
	fmt.Printf("╠═════════════════════╬════════════════╬══════════════════╣\n")
	fmt.Printf("║ Phase               ║ Time           ║ Throughput       ║\n")
	fmt.Printf("╠═════════════════════╬════════════════╬══════════════════╣\n")
	for _, r := range rows {
		r.print()
	}
	fmt.Printf("╠═════════════════════╬════════════════╬══════════════════╣\n")
	fmt.Printf("║ Search matches      ║ %-15d║ q=%-2d s=%-10d║\n", sres.Matches, sres.Difficulty, sres.Targets)
	fmt.Printf("║ Peak RSS growth     ║ %8.1f MB    ║ -                ║\n", float64(peakRSS)/1_000_000)
	fmt.Printf("╚═════════════════════╩════════════════╩══════════════════╝\n")
}
