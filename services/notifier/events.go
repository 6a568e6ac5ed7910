package notifier

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"ocr-api-go/logcolors"
)

var (
	mu         sync.RWMutex
	registered []Notifier
)

// Register installs the notifiers that Publish* functions fan alerts out to.
// Safe to call once at startup; an empty set disables alerting.
func Register(notifiers ...Notifier) {
	mu.Lock()
	defer mu.Unlock()
	registered = append(registered, notifiers...)
}

// publish sends asynchronously so alerting never blocks a request path.
func publish(subject, message string) {
	mu.RLock()
	targets := make([]Notifier, len(registered))
	copy(targets, registered)
	mu.RUnlock()

	for _, n := range targets {
		go func(n Notifier) {
			if err := n.Send(subject, message); err != nil {
				log.Warnf("%s Failed to send notification: %v", logcolors.LogNotifier, err)
			}
		}(n)
	}
}

// PublishCircuitBreakerOpen alerts that the OCR engine circuit has tripped.
func PublishCircuitBreakerOpen(name string, failures int, cooldown time.Duration) {
	publish(
		fmt.Sprintf("Circuit breaker OPEN: %s", name),
		fmt.Sprintf("The %s circuit breaker opened after %d consecutive failures. "+
			"Requests are blocked for %v.", name, failures, cooldown),
	)
}

// PublishCircuitBreakerRecovered alerts that the circuit closed again.
func PublishCircuitBreakerRecovered(name string) {
	publish(
		fmt.Sprintf("Circuit breaker recovered: %s", name),
		fmt.Sprintf("The %s circuit breaker closed after a successful probe request.", name),
	)
}

// PublishHighFailureRate warns that the engine is approaching the trip
// threshold.
func PublishHighFailureRate(name string, failures, threshold int) {
	publish(
		fmt.Sprintf("High failure rate: %s", name),
		fmt.Sprintf("The %s engine has failed %d times in a row (threshold: %d).", name, failures, threshold),
	)
}
