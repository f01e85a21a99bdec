//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/bissquit/notification-registry/internal/domain"
	pgutil "github.com/bissquit/notification-registry/internal/pkg/postgres"
	"github.com/bissquit/notification-registry/internal/subscriptions"
	"github.com/bissquit/notification-registry/internal/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	container, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = container.Terminate(ctx) }()

	if err := pgutil.Migrate(container.ConnectionString); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	testPool, err = pgxpool.New(ctx, container.ConnectionString)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer testPool.Close()

	return m.Run()
}

func newRepo(t *testing.T) *Repository {
	t.Helper()
	_, err := testPool.Exec(context.Background(), "TRUNCATE subscriptions")
	require.NoError(t, err)
	return NewRepository(testPool)
}

func newSub(n int, at time.Time) *domain.Subscription {
	return &domain.Subscription{
		FirstName:           "First",
		LastName:            "Last",
		Email:               fmt.Sprintf("user%02d@example.com", n),
		PhoneNumber:         fmt.Sprintf("555000%04d", n),
		AcceptNotifications: true,
		Status:              domain.SubscriptionStatusActive,
		SubscribedAt:        at.UTC().Truncate(time.Microsecond),
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	sub := newSub(1, time.Now())

	require.NoError(t, repo.Create(ctx, sub))
	_, err := uuid.Parse(sub.ID)
	require.NoError(t, err)

	byEmail, err := repo.GetByEmail(ctx, sub.Email)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, byEmail.ID)
	assert.Equal(t, sub.PhoneNumber, byEmail.PhoneNumber)
	assert.Equal(t, domain.SubscriptionStatusActive, byEmail.Status)
	assert.True(t, byEmail.AcceptNotifications)
	assert.False(t, byEmail.AcceptPromotions)
	assert.True(t, sub.SubscribedAt.Equal(byEmail.SubscribedAt))

	byPhone, err := repo.GetByPhone(ctx, sub.PhoneNumber)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, byPhone.ID)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, subscriptions.ErrSubscriptionNotFound)
}

func TestRepository_UniqueConstraints(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newSub(1, time.Now())))

	sameEmail := newSub(2, time.Now())
	sameEmail.Email = "user01@example.com"
	assert.ErrorIs(t, repo.Create(ctx, sameEmail), subscriptions.ErrEmailSubscribed)

	samePhone := newSub(3, time.Now())
	samePhone.PhoneNumber = "5550000001"
	assert.ErrorIs(t, repo.Create(ctx, samePhone), subscriptions.ErrPhoneSubscribed)
}

func TestRepository_ListOrderAndCount(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		sub := newSub(i, base.Add(time.Duration(i)*time.Minute))
		sub.AcceptPromotions = i%2 == 0
		require.NoError(t, repo.Create(ctx, sub))
	}

	active := domain.SubscriptionStatusActive
	page, err := repo.List(ctx, subscriptions.Filter{Status: &active}, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "user03@example.com", page[0].Email)
	assert.Equal(t, "user02@example.com", page[1].Email)

	promo := true
	count, err := repo.Count(ctx, subscriptions.Filter{Status: &active, AcceptPromotions: &promo})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	empty, err := repo.List(ctx, subscriptions.Filter{Status: &active}, 10, 50)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRepository_UpdateStatusAndDelete(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	sub := newSub(1, time.Now())
	require.NoError(t, repo.Create(ctx, sub))

	updated, err := repo.UpdateStatusByEmail(ctx, sub.Email, domain.SubscriptionStatusUnsubscribed)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusUnsubscribed, updated.Status)
	assert.True(t, sub.SubscribedAt.Equal(updated.SubscribedAt), "subscribedAt is immutable")

	_, err = repo.UpdateStatusByEmail(ctx, "missing@example.com", domain.SubscriptionStatusUnsubscribed)
	assert.ErrorIs(t, err, subscriptions.ErrSubscriptionNotFound)

	require.NoError(t, repo.Delete(ctx, sub.ID))
	assert.ErrorIs(t, repo.Delete(ctx, sub.ID), subscriptions.ErrSubscriptionNotFound)
}
