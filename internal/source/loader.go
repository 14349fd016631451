package source

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/cadence/internal/model"
)

// LoadResult holds the merged output of loading every budget file under a path.
type LoadResult struct {
	Items       []model.LineItem
	TotalFiles  int
	ParsedFiles int
	ParseErrors int
	FileErrors  int
	Problems    []string
}

// ProgressFunc is called during loading to report progress.
type ProgressFunc func(current, total int)

// Load discovers budget files at path and parses them with a bounded worker
// pool. Items keep file discovery order, then in-file order.
func Load(path string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := Discover(path)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = ParseFile(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}

	wg.Wait()

	for _, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			result.Problems = append(result.Problems, fmt.Sprintf("%s: %v", pr.Path, pr.Err))
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		result.Problems = append(result.Problems, pr.Problems...)
		result.Items = append(result.Items, pr.Items...)
	}

	return result, nil
}
