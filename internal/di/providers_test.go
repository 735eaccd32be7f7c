package di

import (
	"testing"

	internalrepo "MoodPulse/internal/repository"
	"MoodPulse/pkg/config"
	applogger "MoodPulse/pkg/logger"
)

func TestRepositoriesFallBackToMemory(t *testing.T) {
	cfg := &config.Config{}

	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		t.Fatalf("empty clickhouse host must not be an error: %v", err)
	}
	if client != nil {
		t.Fatalf("expected nil client without a configured host")
	}

	logger, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	store, err := ProvidePriceStore(nil, logger)
	if err != nil {
		t.Fatalf("price store: %v", err)
	}
	if _, ok := store.(*internalrepo.MemoryPriceStore); !ok {
		t.Fatalf("want in-memory price store, got %T", store)
	}

	log, err := ProvideActionLog(nil, logger)
	if err != nil {
		t.Fatalf("action log: %v", err)
	}
	if _, ok := log.(*internalrepo.MemoryActionLog); !ok {
		t.Fatalf("want in-memory action log, got %T", log)
	}
}
