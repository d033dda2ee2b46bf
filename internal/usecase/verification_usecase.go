package usecase

import (
	"context"
	stderrors "errors"
	"time"

	"civicfix/internal/domain/service"
	"civicfix/internal/infrastructure/metrics"
	"civicfix/pkg/errors"
	"civicfix/pkg/logger"
)

// VerificationUseCase paces calls to the image classifier. Every call waits preCallDelay
// first; a rate-limited call is retried exactly once after retryDelay.
type VerificationUseCase struct {
	verifier     service.ImageVerifier
	preCallDelay time.Duration
	retryDelay   time.Duration
	metrics      *metrics.Metrics
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewVerificationUseCase(
	verifier service.ImageVerifier,
	preCallDelay time.Duration,
	retryDelay time.Duration,
	m *metrics.Metrics,
) *VerificationUseCase {
	return &VerificationUseCase{
		verifier:     verifier,
		preCallDelay: preCallDelay,
		retryDelay:   retryDelay,
		metrics:      m,
		sleep:        sleepContext,
	}
}

// Verify returns the classifier's verdict. A false verdict is not an error; any returned
// error means the verdict is unknown and is reported as an infrastructure failure.
func (uc *VerificationUseCase) Verify(ctx context.Context, image []byte, mimeType, category string) (bool, error) {
	if err := uc.sleep(ctx, uc.preCallDelay); err != nil {
		return false, err
	}

	verdict, err := uc.verifier.Verify(ctx, image, mimeType, category)
	if stderrors.Is(err, service.ErrRateLimited) {
		logger.Warn("Image verifier rate limited, retrying in %s", uc.retryDelay)
		uc.metrics.ObserveVerification("rate_limited")

		if err := uc.sleep(ctx, uc.retryDelay); err != nil {
			return false, err
		}
		verdict, err = uc.verifier.Verify(ctx, image, mimeType, category)
	}

	if err != nil {
		uc.metrics.ObserveVerification("error")
		if stderrors.Is(err, service.ErrRateLimited) {
			return false, errors.Infrastructure("Image verification is busy, please try again shortly", err)
		}
		return false, errors.Infrastructure("Image verification failed", err)
	}

	if verdict {
		uc.metrics.ObserveVerification("verified")
	} else {
		uc.metrics.ObserveVerification("rejected")
	}
	return verdict, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
