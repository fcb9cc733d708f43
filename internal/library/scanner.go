package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jscyril/tiny_audio_player/internal/codec"
	playerrors "github.com/jscyril/tiny_audio_player/pkg/errors"
	"github.com/samber/lo"
)

// Scanner expands files and directories into playable paths using a worker
// pool
type Scanner struct {
	workers int
}

// NewScanner creates a new file scanner
func NewScanner(workers int) *Scanner {
	if workers <= 0 {
		workers = 4 // Default worker count
	}
	return &Scanner{workers: workers}
}

type scanResult struct {
	paths []string
	errs  []error
}

// Expand resolves every input into the supported files it names. A file is
// kept if its extension is supported; a directory contributes its supported
// files in lexical order. Output follows input order. Paths that cannot be
// read are reported as *errors.ImportError and skipped.
func (s *Scanner) Expand(ctx context.Context, inputs []string) ([]string, []error) {
	results := make([]scanResult, len(inputs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = s.expandOne(ctx, inputs[idx])
			}
		}()
	}

	for i := range inputs {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	paths := lo.FlatMap(results, func(r scanResult, _ int) []string { return r.paths })
	errs := lo.FlatMap(results, func(r scanResult, _ int) []error { return r.errs })
	if ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}
	return paths, errs
}

func (s *Scanner) expandOne(ctx context.Context, input string) scanResult {
	var res scanResult

	info, err := os.Stat(input)
	if err != nil {
		res.errs = append(res.errs, &playerrors.ImportError{Path: input, Err: err})
		return res
	}

	if !info.IsDir() {
		if codec.IsSupported(input) {
			res.paths = append(res.paths, input)
		}
		return res
	}

	err = filepath.WalkDir(input, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			res.errs = append(res.errs, &playerrors.ImportError{Path: p, Err: err})
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.IsDir() && codec.IsSupported(p) {
			res.paths = append(res.paths, p)
		}
		return nil
	})
	if err != nil && err != context.Canceled {
		res.errs = append(res.errs, &playerrors.ImportError{Path: input, Err: err})
	}
	return res
}
