package retrieval

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/siherrmann/threadrag/model"
)

// Strategy defines a retrieval strategy
type Strategy interface {
	Retrieve(ctx context.Context, query string, threadID string, config *model.QueryConfig) ([]*model.RetrievalResult, error)
}

// RetryStrategy retries a strategy on encoding failures with exponential
// backoff. Any other error is returned immediately.
type RetryStrategy struct {
	strategy   Strategy
	retries    uint64
	newBackOff func() backoff.BackOff
}

// NewRetryStrategy wraps strategy with up to retries additional attempts
func NewRetryStrategy(strategy Strategy, retries uint64) *RetryStrategy {
	return &RetryStrategy{
		strategy:   strategy,
		retries:    retries,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Retrieve performs retrieval, retrying encoding failures
func (s *RetryStrategy) Retrieve(ctx context.Context, query string, threadID string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	var results []*model.RetrievalResult
	operation := func() error {
		var err error
		results, err = s.strategy.Retrieve(ctx, query, threadID, config)
		if err != nil && !errors.Is(err, model.ErrEncodingFailure) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.retries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return results, nil
}
