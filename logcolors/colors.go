package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"
)

// Cache-related log prefixes
const (
	LogCacheInit  = Blue + "[Cache:Init]" + Reset
	LogCache      = Blue + "[Cache]" + Reset
	LogCacheSweep = Cyan + "[Cache:Sweep]" + Reset
	LogCacheClear = Blue + "[Cache:Clear]" + Reset
)

// Request pipeline log prefixes
const (
	LogValidate = Cyan + "[Validate]" + Reset
	LogExtract  = Blue + "[Extract]" + Reset
	LogBatch    = Purple + "[Batch]" + Reset
	LogOCR      = Green + "[OCR]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAPIKey    = Purple + "[APIKey]" + Reset
)

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
)

// Notification log prefixes
const (
	LogNotifier = Cyan + "[Notifier]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}
