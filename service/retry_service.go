package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/metrics"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryStrategy selects how the image is preprocessed for one OCR attempt.
type RetryStrategy string

const (
	StrategyRetry    RetryStrategy = "retry"
	StrategyEnhance  RetryStrategy = "enhance"
	StrategyFallback RetryStrategy = "fallback"
)

// escalation is the order in which enabled strategies are tried.
var escalation = []RetryStrategy{StrategyRetry, StrategyEnhance, StrategyFallback}

// OCRFunc performs one extraction on an encoded image.
type OCRFunc func(ctx context.Context, imageData []byte) (*dto.ExtractedIDData, error)

// RetryOptions controls the number of retries, their backoff and the enabled strategies.
type RetryOptions struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Strategies    []RetryStrategy
}

// DefaultRetryOptions retries three times, waiting 1s, 2s and 4s.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:    3,
		BaseDelay:     time.Second,
		MaxDelay:      8 * time.Second,
		BackoffFactor: 2,
		Strategies:    []RetryStrategy{StrategyRetry, StrategyEnhance, StrategyFallback},
	}
}

// ParseStrategies converts configured names, skipping unknown ones.
func ParseStrategies(names []string) []RetryStrategy {
	var out []RetryStrategy
	for _, n := range names {
		for _, s := range escalation {
			if string(s) == n {
				out = append(out, s)
			}
		}
	}
	return out
}

func (o RetryOptions) withDefaults() RetryOptions {
	def := DefaultRetryOptions()
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = def.BaseDelay
	}
	if o.MaxDelay < o.BaseDelay {
		o.MaxDelay = o.BaseDelay
	}
	if o.BackoffFactor < 1 {
		o.BackoffFactor = def.BackoffFactor
	}
	if len(o.Strategies) == 0 {
		o.Strategies = def.Strategies
	}
	return o
}

// sequence is the enabled strategies in escalation order. The first attempt
// always uses the unmodified image.
func (o RetryOptions) sequence() []RetryStrategy {
	seq := []RetryStrategy{StrategyRetry}
	for _, s := range escalation[1:] {
		for _, enabled := range o.Strategies {
			if enabled == s {
				seq = append(seq, s)
				break
			}
		}
	}
	return seq
}

// StrategyFor returns the strategy used on the given 1-based attempt. Past
// the end of the sequence it cycles, so consecutive attempts differ whenever
// more than one strategy is enabled.
func (o RetryOptions) StrategyFor(attempt int) RetryStrategy {
	seq := o.sequence()
	if attempt < 1 {
		attempt = 1
	}
	return seq[(attempt-1)%len(seq)]
}

func (o RetryOptions) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.BaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = o.BackoffFactor
	b.MaxInterval = o.MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// BackoffSchedule returns the waits between consecutive attempts.
func BackoffSchedule(opts RetryOptions) []time.Duration {
	opts = opts.withDefaults()
	b := opts.newBackOff()
	delays := make([]time.Duration, 0, opts.MaxRetries)
	for i := 0; i < opts.MaxRetries; i++ {
		delays = append(delays, b.NextBackOff())
	}
	return delays
}

// RetryService runs an OCR function with escalating image preprocessing and
// exponential backoff between attempts.
type RetryService struct {
	logger *zap.Logger
}

// NewRetryService creates a new RetryService instance
func NewRetryService(logger *zap.Logger) *RetryService {
	return &RetryService{logger: logger}
}

// RetryOCRWithStrategies makes up to MaxRetries+1 attempts and records each
// one. Cancellation of ctx stops further attempts and becomes the terminal error.
func (s *RetryService) RetryOCRWithStrategies(ctx context.Context, ocrFn OCRFunc, imageData []byte, opts RetryOptions) *dto.RetryResult {
	opts = opts.withDefaults()
	b := opts.newBackOff()
	total := opts.MaxRetries + 1

	result := &dto.RetryResult{Attempts: make([]dto.RetryAttempt, 0, total)}
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= total; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, b.NextBackOff()); err != nil {
				lastErr = fmt.Errorf("retry cancelled before attempt %d: %w", attempt, err)
				break
			}
		}
		if err := ctx.Err(); err != nil {
			lastErr = fmt.Errorf("retry cancelled before attempt %d: %w", attempt, err)
			break
		}

		strategy := opts.StrategyFor(attempt)
		attemptStart := time.Now()
		data, err := s.runAttempt(ctx, ocrFn, imageData, strategy)
		record := dto.RetryAttempt{
			Attempt:    attempt,
			Strategy:   string(strategy),
			Timestamp:  attemptStart,
			DurationMs: time.Since(attemptStart).Milliseconds(),
		}

		if err == nil {
			result.Attempts = append(result.Attempts, record)
			result.Success = true
			result.Data = data
			result.TotalDurationMs = time.Since(start).Milliseconds()
			metrics.OCRAttempts.WithLabelValues(string(strategy), "success").Inc()
			s.logger.Info("OCR attempt succeeded",
				zap.Int("attempt", attempt), zap.String("strategy", string(strategy)))
			return result
		}

		record.Error = err.Error()
		result.Attempts = append(result.Attempts, record)
		lastErr = err
		metrics.OCRAttempts.WithLabelValues(string(strategy), "failure").Inc()
		s.logger.Warn("OCR attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("of", total),
			zap.String("strategy", string(strategy)),
			zap.Error(err))
	}

	result.Success = false
	if lastErr != nil {
		result.Error = lastErr.Error()
	}
	result.TotalDurationMs = time.Since(start).Milliseconds()
	return result
}

func (s *RetryService) runAttempt(ctx context.Context, ocrFn OCRFunc, imageData []byte, strategy RetryStrategy) (*dto.ExtractedIDData, error) {
	prepared, err := ApplyStrategy(strategy, imageData)
	if err != nil {
		return nil, err
	}
	data, err := ocrFn(ctx, prepared)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("OCR returned no data")
	}
	return data, nil
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

// AnalyzeRetryResult summarizes a retry run for diagnostics.
func AnalyzeRetryResult(result *dto.RetryResult) dto.RetryAnalysis {
	analysis := dto.RetryAnalysis{Insights: []string{}}
	if result == nil {
		analysis.Recommendation = "No extraction was attempted"
		return analysis
	}

	analysis.TotalAttempts = len(result.Attempts)
	var totalMs int64
	distinct := make(map[string]int)
	failures := 0
	for _, a := range result.Attempts {
		totalMs += a.DurationMs
		if a.Error != "" {
			failures++
			distinct[a.Error]++
		}
	}
	if analysis.TotalAttempts > 0 {
		analysis.AverageAttemptMs = totalMs / int64(analysis.TotalAttempts)
	}
	analysis.DistinctErrors = len(distinct)
	analysis.ConsistentError = failures > 1 && len(distinct) == 1

	if result.Success {
		last := result.Attempts[len(result.Attempts)-1]
		analysis.SuccessfulStrategy = last.Strategy
		if failures == 0 {
			analysis.Insights = append(analysis.Insights, "Extraction succeeded on the first attempt")
		} else {
			analysis.Insights = append(analysis.Insights,
				fmt.Sprintf("Extraction succeeded with the %s strategy after %d failed attempt(s)", last.Strategy, failures))
			if last.Strategy != string(StrategyRetry) {
				analysis.Insights = append(analysis.Insights, "Image preprocessing improved recognition")
			}
		}
		analysis.Recommendation = "No action needed"
	} else {
		switch {
		case analysis.ConsistentError:
			analysis.Insights = append(analysis.Insights, "Every attempt failed with the same error, which points to a systematic problem")
			analysis.Recommendation = "Ask the user to retake the photo or enter the details manually"
		case len(distinct) > 1:
			analysis.Insights = append(analysis.Insights,
				fmt.Sprintf("Attempts failed with %d different errors, which points to an unstable OCR service", len(distinct)))
			analysis.Recommendation = "Let the user retry later or continue with manual entry"
		default:
			analysis.Recommendation = "Continue with manual entry"
		}
	}

	if analysis.AverageAttemptMs > 10_000 {
		analysis.Insights = append(analysis.Insights, "OCR responses were slow")
	}
	analysis.Insights = append(analysis.Insights,
		fmt.Sprintf("Total time %s", (time.Duration(result.TotalDurationMs)*time.Millisecond).String()))
	return analysis
}
