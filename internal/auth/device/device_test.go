package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUserAgent(t *testing.T) {
	t.Run("empty user agent returns unknown device", func(t *testing.T) {
		assert.Equal(t, "Unknown Device", ParseUserAgent(""))
	})

	t.Run("chrome on desktop includes browser and OS", func(t *testing.T) {
		userAgent := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
		result := ParseUserAgent(userAgent)
		assert.Contains(t, result, "Chrome")
		assert.Contains(t, result, "on")
		assert.NotContains(t, result, "  ")
	})

	t.Run("safari on iphone includes platform", func(t *testing.T) {
		userAgent := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
		result := ParseUserAgent(userAgent)
		assert.Contains(t, result, "on")
		assert.Contains(t, result, "iPhone")
	})

	t.Run("firefox on linux includes browser and OS", func(t *testing.T) {
		userAgent := "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
		result := ParseUserAgent(userAgent)
		assert.Contains(t, result, "Firefox")
		assert.Contains(t, result, "on")
	})

	t.Run("unknown user agent returns formatted string", func(t *testing.T) {
		result := ParseUserAgent("Unknown/1.0")
		assert.Contains(t, result, "on")
		assert.NotEmpty(t, result)
	})

	t.Run("result has no leading or trailing whitespace", func(t *testing.T) {
		userAgent := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
		result := ParseUserAgent(userAgent)
		assert.Equal(t, result, strings.TrimSpace(result))
	})
}
