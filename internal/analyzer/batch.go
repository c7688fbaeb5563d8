package analyzer

import (
	"context"

	"github.com/raine/facegrade/internal/analysis"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type loadedImage struct {
	ref      string
	data     []byte
	mimeType string
}

// AnalyzeBatch analyzes several images. Image bytes are prefetched
// concurrently, but the analyses themselves run one at a time; the
// orchestrator is single flight by design. Results come back in input
// order. The first failure aborts the batch.
func (s *Service) AnalyzeBatch(ctx context.Context, imageURIs []string) ([]*analysis.Result, error) {
	loaded := make([]loadedImage, len(imageURIs))
	g, gctx := errgroup.WithContext(ctx)
	for i := range imageURIs {
		g.Go(func() error {
			data, mimeType, err := s.images.Load(gctx, imageURIs[i])
			if err != nil {
				log.Error().Err(err).Str("ref", imageURIs[i]).Msg("failed to load image")
				return err
			}
			loaded[i] = loadedImage{ref: imageURIs[i], data: data, mimeType: mimeType}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]*analysis.Result, len(loaded))
	for i, img := range loaded {
		result, err := s.analyzeLoaded(ctx, img)
		if err != nil {
			return nil, err
		}
		results[i] = result
	}
	return results, nil
}

func (s *Service) analyzeLoaded(ctx context.Context, img loadedImage) (*analysis.Result, error) {
	return s.guardedRun(func() (*analysis.Result, error) {
		return s.analyzeData(ctx, img.ref, img.data, img.mimeType)
	})
}
