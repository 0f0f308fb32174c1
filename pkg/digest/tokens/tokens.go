// Package tokens estimates how many LLM tokens a digest will consume.
//
// The default counter uses the cl100k_base byte-pair encoding with ranks
// embedded in the binary, so estimation never reaches the network.
package tokens

import (
	"fmt"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/jamesainslie/digest/pkg/digest/logging"
)

// Encoding is the byte-pair encoding used by the default counter.
const Encoding = "cl100k_base"

var logger = logging.Get("tokens")

// Counter counts tokens in text.
type Counter interface {
	Count(text string) (int, error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(text string) (int, error)

// Count calls f(text).
func (f CounterFunc) Count(text string) (int, error) {
	return f(text)
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// NewCounter returns a counter backed by the named encoding.
func NewCounter(encoding string) (Counter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading encoding %s: %w", encoding, err)
	}
	return &tiktokenCounter{enc: enc}, nil
}

// Count encodes text without special-token handling, so text that happens to
// contain special-token markers is counted as ordinary input.
func (c *tiktokenCounter) Count(text string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tokenizer panic: %v", r)
		}
	}()
	return len(c.enc.EncodeOrdinary(text)), nil
}

var (
	defaultOnce    sync.Once
	defaultCounter Counter
	defaultErr     error
)

// Default returns the shared cl100k_base counter, loading it on first use.
func Default() (Counter, error) {
	defaultOnce.Do(func() {
		defaultCounter, defaultErr = NewCounter(Encoding)
	})
	return defaultCounter, defaultErr
}

// Estimate counts the tokens in text and formats the result. It reports
// false when the tokenizer is unavailable or fails; callers then omit the
// estimate instead of failing. A nil counter selects Default.
func Estimate(c Counter, text string) (string, bool) {
	if c == nil {
		var err error
		if c, err = Default(); err != nil {
			logger.Warn("token estimation unavailable", "error", err)
			return "", false
		}
	}

	n, err := c.Count(text)
	if err != nil {
		logger.Warn("token estimation failed", "error", err)
		return "", false
	}
	return Format(n), true
}

// kiloCeiling is the smallest count whose "k" form would round to 1000.0k.
const kiloCeiling = 999_950

// Format renders a token count: a bare integer below 1,000, one decimal with
// a "k" suffix below 1000.0k and with an "M" suffix from there on.
func Format(n int) string {
	switch {
	case n >= kiloCeiling:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
