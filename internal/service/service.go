// Package service coordinates a request for an animated avatar: it derives
// the cache key, serves fresh entries from the store, and otherwise runs the
// fetch and transform pipeline, stores the result and renders it.
package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/briangreenhill/petpet/cache"
	"github.com/briangreenhill/petpet/petpet"
)

const (
	DefaultFetchTimeout     = 10 * time.Second
	DefaultTransformTimeout = 15 * time.Second
)

// Source fetches the raw image for an identity. Implementations must
// return once ctx is done.
type Source interface {
	Fetch(ctx context.Context, id int64) ([]byte, error)
}

// Transformer turns raw image bytes into an encoded animation.
type Transformer interface {
	Transform(ctx context.Context, raw []byte, filter petpet.Filter) ([]byte, error)
}

// Request is one inbound request after routing.
type Request struct {
	RawID  string
	Mode   Mode
	Filter petpet.Filter
	// Force skips the cache read. The result is still written.
	Force bool
}

type Service struct {
	store       cache.Store
	source      Source
	transformer Transformer

	now              cache.Clock
	fetchTimeout     time.Duration
	transformTimeout time.Duration

	coalesce bool
	inflight singleflight.Group

	log zerolog.Logger
}

type Option func(*Service)

// WithClock sets the clock used for freshness checks. It should be the
// same clock the store stamps entries with.
func WithClock(c cache.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.now = c
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

func WithTransformTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.transformTimeout = d
		}
	}
}

// WithCoalescing makes concurrent misses on one key share a single
// fetch and transform. Off by default: each miss runs its own pipeline and
// the last Insert wins.
func WithCoalescing(on bool) Option {
	return func(s *Service) { s.coalesce = on }
}

// WithLogger sets the fallback logger, used when the request context
// carries none.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func New(store cache.Store, source Source, transformer Transformer, opts ...Option) *Service {
	s := &Service{
		store:            store,
		source:           source,
		transformer:      transformer,
		now:              time.Now,
		fetchTimeout:     DefaultFetchTimeout,
		transformTimeout: DefaultTransformTimeout,
		log:              zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ParseIdentity strips a trailing ".gif" and parses the rest as a base-10
// integer.
func ParseIdentity(raw string) (int64, error) {
	trimmed := strings.TrimSuffix(raw, ".gif")
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not an integer", ErrInvalidInput, raw)
	}
	return id, nil
}

// Handle runs one request to completion. Errors wrap one of ErrInvalidInput,
// ErrFetch, ErrTransform or ErrStore.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	id, err := ParseIdentity(req.RawID)
	if err != nil {
		return nil, err
	}

	key := cache.KeyFor(id, req.Filter.Label())
	log := s.logger(ctx).With().Str("key", key.String()).Str("mode", req.Mode.String()).Logger()

	if req.Force {
		log.Debug().Msg("cache bypass requested")
	} else {
		e, ok, err := s.lookup(key)
		if err != nil {
			return nil, err
		}
		switch {
		case ok && e.Fresh(s.now(), cache.TTL):
			log.Debug().Msg("cache hit")
			resp, err := Render(id, e.Payload, req.Mode)
			if err != nil {
				return nil, err
			}
			resp.Hit = true
			return resp, nil
		case ok:
			log.Debug().Time("inserted_at", e.InsertedAt).Msg("cache stale")
		default:
			log.Debug().Msg("cache miss")
		}
	}

	payload, err := s.produce(ctx, id, key, req.Filter, &log)
	if err != nil {
		log.Error().Err(err).Msg("pipeline failed")
		return nil, err
	}
	return Render(id, payload, req.Mode)
}

// produce runs the pipeline, directly or through the in-flight group. A
// coalesced run is detached from the first caller's cancellation so its
// disconnect cannot fail the others; the timeouts still bound it.
func (s *Service) produce(ctx context.Context, id int64, key cache.Key, filter petpet.Filter, log *zerolog.Logger) (string, error) {
	if !s.coalesce {
		return s.pipeline(ctx, id, key, filter, log)
	}

	v, err, shared := s.inflight.Do(key.String(), func() (any, error) {
		return s.pipeline(context.WithoutCancel(ctx), id, key, filter, log)
	})
	if shared {
		log.Debug().Msg("joined in-flight pipeline")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Service) pipeline(ctx context.Context, id int64, key cache.Key, filter petpet.Filter, log *zerolog.Logger) (string, error) {
	start := time.Now()

	fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	raw, err := s.source.Fetch(fctx, id)
	cancel()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}

	tctx, cancel := context.WithTimeout(ctx, s.transformTimeout)
	out, err := bounded(tctx, func() ([]byte, error) {
		return s.transformer.Transform(tctx, raw, filter)
	})
	cancel()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransform, err)
	}

	payload := base64.StdEncoding.EncodeToString(out)
	if err := s.insert(key, payload); err != nil {
		return "", err
	}

	log.Info().
		Str("size", humanize.Bytes(uint64(len(out)))).
		Dur("took", time.Since(start)).
		Msg("stored animation")
	return payload, nil
}

// bounded runs fn and gives up when ctx is done, even if fn ignores ctx.
func bounded(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	type result struct {
		b   []byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		b, err := fn()
		ch <- result{b, err}
	}()

	select {
	case r := <-ch:
		return r.b, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// lookup and insert turn a panicking store into ErrStore for this request
// only.
func (s *Service) lookup(key cache.Key) (e cache.Entry, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: lookup %s: %v", ErrStore, key, r)
		}
	}()
	e, ok = s.store.Lookup(key)
	return e, ok, nil
}

func (s *Service) insert(key cache.Key, payload string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: insert %s: %v", ErrStore, key, r)
		}
	}()
	if err := s.store.Insert(key, payload); err != nil {
		return fmt.Errorf("%w: insert %s: %w", ErrStore, key, err)
	}
	return nil
}

func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}
