// Package statsd wraps the few statsd calls the scheduler makes so the datadog
// client stays an implementation detail of this package.
package statsd

import (
	"sync"
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

var (
	mu     sync.RWMutex
	client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}
)

func Client() ddstatsd.ClientInterface {
	mu.RLock()
	defer mu.RUnlock()
	return client
}

// EmitStageStat reports the duration of one stage run.
func EmitStageStat(start time.Time, stage string) {
	emitTiming("stage", time.Since(start), []string{"stage:" + stage})
}

// EmitSystemStat reports the duration of one system invocation.
func EmitSystemStat(duration time.Duration, stage, system string) {
	emitTiming("system", duration, []string{"stage:" + stage, "system:" + system})
}

func emitTiming(name string, duration time.Duration, tags []string) {
	if err := Client().Timing(name, duration, tags, 1); err != nil {
		log.Logger.Warn().Msgf("failed to emit %s stat: %v", name, err)
	}
}

// Init replaces the NoOp client with one that sends to the given address.
func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}

	opts := []ddstatsd.Option{
		ddstatsd.WithNamespace("ecs"),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return eris.Wrapf(err, "failed to create statsd client for %q", address)
	}

	mu.Lock()
	defer mu.Unlock()
	client = newClient
	return nil
}

// Reset restores the NoOp client, closing the previous one.
func Reset() error {
	mu.Lock()
	defer mu.Unlock()

	previous := client
	client = &ddstatsd.NoOpClient{}
	return previous.Close()
}
