package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrBackendUnavailable reports a network, auth, or timeout failure against
// the model backend. It is surfaced to the caller as a readable message; the
// gateway never retries beyond its own backpressure.
var ErrBackendUnavailable = errors.New("model backend unavailable")

// ErrMalformedResponse reports a backend response missing the expected answer.
// It matches errors.Is(err, ErrBackendUnavailable).
var ErrMalformedResponse = fmt.Errorf("%w: malformed backend response", ErrBackendUnavailable)

const defaultTimeout = 60 * time.Second

// Request carries one assembled prompt to a backend.
type Request struct {
	Model       string
	Instruction string
	Context     string
	Question    string
}

// Gateway dispatches assembled prompts to a model backend selected by model
// name. It applies a sliding-window rate limit (blocking, never rejecting),
// memoizes successful answers, and bounds stuck calls with a timeout so a
// hung backend cannot wedge the session loop.
type Gateway struct {
	backends map[string]Backend
	limiter  *Limiter
	cache    *responseCache
	timeout  time.Duration
}

func New(requestsPerMinute, cacheCapacity int, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{
		backends: make(map[string]Backend),
		limiter:  NewLimiter(requestsPerMinute, time.Minute),
		cache:    newResponseCache(cacheCapacity),
		timeout:  timeout,
	}
}

// Register binds a model name to a backend. The conversation manager selects
// by model name only and never branches on backend identity.
func (g *Gateway) Register(model string, backend Backend) {
	g.backends[model] = backend
}

// Generate returns the answer for the request. Identical (model, context,
// question) triples may be served from the cache; the underlying model itself
// is not assumed deterministic.
func (g *Gateway) Generate(ctx context.Context, req Request) (string, error) {
	backend, ok := g.backends[req.Model]
	if !ok {
		return "", fmt.Errorf("%w: no backend registered for model %q", ErrBackendUnavailable, req.Model)
	}

	key := req.Model + "\x00" + req.Context + "\x00" + req.Question
	if answer, ok := g.cache.get(key); ok {
		log.Debug().Str("model", req.Model).Msg("serving answer from cache")
		return answer, nil
	}

	// backpressure, not rejection: a full window blocks until the oldest
	// request ages out
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	userMessage := fmt.Sprintf("Context:\n%s\nQuestion: %s", req.Context, req.Question)
	answer, err := backend.Generate(callCtx, req.Model, req.Instruction, userMessage)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: call exceeded %s", ErrBackendUnavailable, g.timeout)
		}
		return "", err
	}

	g.cache.put(key, answer)
	return answer, nil
}
