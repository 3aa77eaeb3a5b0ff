//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/food-ordering/internal/domain/auth"
	"github.com/xenking/food-ordering/internal/domain/menu"
	"github.com/xenking/food-ordering/internal/domain/order"
	"github.com/xenking/food-ordering/internal/domain/payment"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "food",
				"POSTGRES_PASSWORD": "food",
				"POSTGRES_DB":       "food",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := pg.Terminate(context.Background()); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	host, err := pg.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://food:food@%s:%s/food?sslmode=disable", host, port.Port())
	testPool, err = NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	// The schema is idempotent.
	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations (second run): %v", err)
	}

	return m.Run()
}

func newUser(t *testing.T, email string) *auth.User {
	t.Helper()
	u := &auth.User{
		ID:           "user-" + email,
		Email:        email,
		DisplayName:  "Test",
		PasswordHash: "$2a$04$hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), u))
	return u
}

func TestMenuRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMenuRepository(testPool)

	items := menu.DefaultItems()[:3]
	require.NoError(t, repo.Upsert(ctx, items))

	// Re-upserting in a different order updates prices and display order.
	reordered := []menu.Item{items[2], items[0], items[1]}
	reordered[0].Price = decimal.RequireFromString("219.50")
	require.NoError(t, repo.Upsert(ctx, reordered))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, reordered[0].ID, got[0].ID)
	assert.Equal(t, "219.50", got[0].Price.StringFixed(2))
	assert.Equal(t, reordered[1].Name, got[1].Name)
	assert.Equal(t, reordered[1].Category, got[1].Category)
	assert.InDelta(t, reordered[1].Rating, got[1].Rating, 0.001)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testPool)
	u := newUser(t, "asha@example.com")

	byEmail, err := repo.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.True(t, u.CreatedAt.Equal(byEmail.CreatedAt))

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, auth.ErrUserNotFound)

	dup := *u
	dup.ID = "another-id"
	require.ErrorIs(t, repo.Create(ctx, &dup), auth.ErrEmailTaken)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testPool)
	u := newUser(t, "orders@example.com")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mk := func(id string, at time.Time) *order.Order {
		return &order.Order{
			ID:        id,
			UserID:    u.ID,
			UserEmail: u.Email,
			Items: []order.Item{
				{ID: "1", Name: "Margherita Pizza", Price: decimal.NewFromInt(299), Quantity: 2},
			},
			Subtotal:    decimal.NewFromInt(598),
			DeliveryFee: decimal.NewFromInt(49),
			Tax:         decimal.RequireFromString("47.84"),
			Total:       decimal.RequireFromString("694.84"),
			DeliveryAddress: order.Address{
				Latitude: 28.6139, Longitude: 77.209, Address: "12 Janpath", City: "New Delhi",
			},
			PaymentMethod:    payment.MethodUPI,
			PaymentReference: "offline-1",
			Status:           order.StatusPending,
			CreatedAt:        at,
		}
	}

	require.NoError(t, repo.Create(ctx, mk("o-old", base)))
	require.NoError(t, repo.Create(ctx, mk("o-new", base.Add(time.Hour))))

	list, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o-new", list[0].ID)
	assert.Equal(t, "o-old", list[1].ID)

	got, err := repo.GetByID(ctx, "o-old")
	require.NoError(t, err)
	assert.Equal(t, "694.84", got.Total.StringFixed(2))
	assert.Equal(t, payment.MethodUPI, got.PaymentMethod)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, "12 Janpath", got.DeliveryAddress.Address)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, got.Items[0].Price.Equal(decimal.NewFromInt(299)))

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, order.ErrNotFound)

	empty, err := repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
