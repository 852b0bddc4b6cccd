package cache

import (
	"context"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hpungsan/langroutes/internal/country"
	"github.com/hpungsan/langroutes/internal/errors"
)

// Fetcher is anything that can fetch raw records for a language key.
type Fetcher interface {
	FetchByLanguage(ctx context.Context, language string) ([]country.RawRecord, error)
}

// Source serves FetchByLanguage from the Store when it can and from the
// wrapped Fetcher otherwise. Empty results and errors are not cached, so an
// upstream outage is retried on the next query.
type Source struct {
	store  *Store
	inner  Fetcher
	logger *zap.Logger

	group singleflight.Group
}

// NewSource wraps inner with store. A nil logger disables logging.
func NewSource(store *Store, inner Fetcher, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{store: store, inner: inner, logger: logger}
}

// FetchByLanguage implements Fetcher.
//
// Concurrent calls for one language share a single lookup. A caller whose
// context ends stops waiting; the shared fetch runs on and is bounded by
// the inner Fetcher's own timeout.
func (s *Source) FetchByLanguage(ctx context.Context, language string) ([]country.RawRecord, error) {
	ch := s.group.DoChan(language, func() (any, error) {
		return s.lookup(context.WithoutCancel(ctx), language)
	})

	select {
	case <-ctx.Done():
		return nil, errors.NewCancelled("fetch " + language)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]country.RawRecord)), nil
	}
}

func (s *Source) lookup(ctx context.Context, language string) ([]country.RawRecord, error) {
	log := s.logger.With(zap.String("language", language))

	records, ok, err := s.store.Get(ctx, language)
	if err != nil {
		log.Warn("cache read failed, fetching upstream", zap.Error(err))
	} else if ok {
		log.Debug("cache hit", zap.Int("count", len(records)))
		return records, nil
	}

	records, err = s.inner.FetchByLanguage(ctx, language)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	if err := s.store.Put(ctx, language, records); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}
	return records, nil
}
