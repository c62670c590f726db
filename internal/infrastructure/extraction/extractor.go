package extraction

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/ports"
)

// Stats receives extraction outcomes. Implemented by the Prometheus
// pipeline metrics; nil disables reporting.
type Stats interface {
	CacheHit()
	CacheMiss()
	RemoteCall(modality domain.Modality, err error)
}

// Extractor turns raw application bytes into typed fields: classify
// the modality, consult the cache, and only then pay for a model
// call. Concurrent requests for the same fingerprint are coalesced so
// at most one remote call is in flight per fingerprint.
type Extractor struct {
	model       ports.ChatModel
	cache       ports.ExtractionCache
	logger      *slog.Logger
	stats       Stats
	callTimeout time.Duration
	group       singleflight.Group
}

type Options struct {
	CallTimeout time.Duration
	Stats       Stats
	Logger      *slog.Logger
}

func New(model ports.ChatModel, cache ports.ExtractionCache) *Extractor {
	return NewWithOptions(model, cache, Options{})
}

func NewWithOptions(model ports.ChatModel, cache ports.ExtractionCache, options Options) *Extractor {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		model:       model,
		cache:       cache,
		logger:      logger,
		stats:       options.Stats,
		callTimeout: options.CallTimeout,
	}
}

func (e *Extractor) Extract(ctx context.Context, doc domain.RawDocument) (domain.ExtractedFields, error) {
	cls, err := classifyDocument(doc)
	if err != nil {
		return domain.ExtractedFields{}, err
	}

	model := e.model.ModelID(cls.modality)
	fingerprint := domain.Fingerprint(doc.Content, cls.modality, model)

	if fields, ok := e.cacheLookup(ctx, fingerprint); ok {
		e.logger.Debug("extract.cache_hit", "fingerprint", fingerprint[:12], "file", doc.Filename)
		return fields, nil
	}

	result, err, _ := e.group.Do(fingerprint, func() (any, error) {
		// Another run may have landed the result while this one queued.
		if fields, ok := e.cacheLookup(ctx, fingerprint); ok {
			return fields, nil
		}
		if e.stats != nil {
			e.stats.CacheMiss()
		}

		fields, err := e.callModel(ctx, cls, doc)
		if err != nil {
			return nil, err
		}
		fields.Model = model
		fields.Modality = cls.modality

		if err := e.cache.Put(ctx, fingerprint, fields); err != nil {
			e.logger.Warn("extract.cache_put_failed", "fingerprint", fingerprint[:12], "error", err)
		}
		return fields, nil
	})
	if err != nil {
		return domain.ExtractedFields{}, err
	}
	return result.(domain.ExtractedFields), nil
}

// cacheLookup treats a broken cache as a miss: a degraded cache slows
// the pipeline down, it must not stop it.
func (e *Extractor) cacheLookup(ctx context.Context, fingerprint string) (domain.ExtractedFields, bool) {
	fields, ok, err := e.cache.Get(ctx, fingerprint)
	if err != nil {
		e.logger.Warn("extract.cache_get_failed", "fingerprint", fingerprint[:12], "error", err)
		return domain.ExtractedFields{}, false
	}
	if ok && e.stats != nil {
		e.stats.CacheHit()
	}
	return fields, ok
}

func (e *Extractor) callModel(ctx context.Context, cls classified, doc domain.RawDocument) (domain.ExtractedFields, error) {
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}

	var raw string
	var err error
	switch cls.modality {
	case domain.ModalityVision:
		raw, err = e.model.CompleteVision(ctx, buildVisionPrompt(), doc.Content, cls.mediaType)
	default:
		raw, err = e.model.CompleteText(ctx, buildTextPrompt(cls.text))
	}
	if e.stats != nil {
		e.stats.RemoteCall(cls.modality, err)
	}
	if err != nil {
		return domain.ExtractedFields{}, domain.WrapError(domain.ErrRemoteCall, "extract.remote", err)
	}

	return parseModelResponse(raw)
}
