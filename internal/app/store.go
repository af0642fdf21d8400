package service

import (
	"context"
	"fmt"

	"github.com/okian/brandboard/internal/adapters/repository"
	"github.com/okian/brandboard/internal/adapters/repository/breaker"
	"github.com/okian/brandboard/internal/adapters/repository/instrumented"
	"github.com/okian/brandboard/internal/adapters/repository/memory"
	"github.com/okian/brandboard/internal/adapters/repository/mongostore"
	"github.com/okian/brandboard/internal/adapters/repository/postgres"
	"github.com/okian/brandboard/internal/adapters/repository/sqlstore"
	"github.com/okian/brandboard/internal/config"
	"github.com/okian/brandboard/internal/domain/attributes"
	"github.com/okian/brandboard/internal/query"
	"github.com/okian/brandboard/pkg/logger"
)

// OpenStore opens the configured backend and wraps it with metrics and,
// when enabled, a circuit breaker.
func OpenStore(ctx context.Context, sc config.StoreConfig, bc config.BreakerConfig) (repository.Store, error) {
	const op = "service.OpenStore"

	var (
		store repository.Store
		err   error
	)
	switch sc.Driver {
	case "memory":
		if sc.Fixtures == "" {
			store = memory.New()
			break
		}
		store, err = memory.LoadFixtures(sc.Fixtures)
	case "postgres":
		store, err = postgres.Open(ctx, sc.DSN)
	case "sqlite", "mysql":
		store, err = sqlstore.Open(ctx, sc.Driver, sc.DSN)
	case "mongo":
		store, err = mongostore.Open(ctx, sc.DSN, sc.Database)
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, repository.ErrUnknownDriver, sc.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	store = instrumented.New(store)
	if bc.Enabled {
		store = breaker.New(sc.Driver, store,
			breaker.WithMaxRequests(bc.MaxRequests),
			breaker.WithInterval(bc.Interval),
			breaker.WithTimeout(bc.Timeout),
			breaker.WithTripThreshold(bc.MinRequests, bc.FailureRatio),
			breaker.WithLogger(logger.Get().Named("breaker")),
		)
	}
	return store, nil
}

// TablesFromConfig maps configured table names onto the query layer's.
func TablesFromConfig(tc config.TablesConfig) query.Tables {
	return query.Tables{
		Places:     tc.Places,
		Likes:      tc.Likes,
		Dislikes:   tc.Dislikes,
		Profiles:   tc.Profiles,
		Onboarding: tc.Onboarding,
	}
}

// TaxonomyFromConfig builds and validates the attribute taxonomy.
func TaxonomyFromConfig(entries []config.AttributeConfig) (attributes.Taxonomy, error) {
	t := make(attributes.Taxonomy, 0, len(entries))
	for _, e := range entries {
		t = append(t, attributes.Entry{Key: e.Key, Label: e.Label})
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("service.TaxonomyFromConfig: %w", err)
	}
	return t, nil
}
