// internal/policy/provider_test.go

package policy

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-workers/internal/common/logger"
	"intake-workers/internal/models"
)

func TestGetPaymentPolicy_DatabaseHitPopulatesCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	mock.ExpectQuery("SELECT requires_payment, consultation_fee, payment_link").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"requires_payment", "consultation_fee", "payment_link"}).
			AddRow(true, 150.0, "https://pay.example/x"))

	provider := NewProvider(db, cache, 5*time.Minute, logger.NewNoOpLogger())
	policy, err := provider.GetPaymentPolicy(context.Background(), "org-1")

	assert.NoError(t, err)
	assert.True(t, policy.RequiresPayment)
	assert.Equal(t, 150.0, policy.ConsultationFee)
	assert.Equal(t, "https://pay.example/x", policy.PaymentLink)

	cached, err := mr.Get("org:payment-policy:org-1")
	require.NoError(t, err)
	var fromCache models.PaymentPolicy
	require.NoError(t, json.Unmarshal([]byte(cached), &fromCache))
	assert.Equal(t, policy, fromCache)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPaymentPolicy_CacheHitSkipsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	raw, _ := json.Marshal(models.PaymentPolicy{RequiresPayment: true, ConsultationFee: 99})
	require.NoError(t, mr.Set("org:payment-policy:org-2", string(raw)))

	provider := NewProvider(db, cache, 5*time.Minute, logger.NewNoOpLogger())
	policy, err := provider.GetPaymentPolicy(context.Background(), "org-2")

	assert.NoError(t, err)
	assert.Equal(t, 99.0, policy.ConsultationFee)
	assert.NoError(t, mock.ExpectationsWereMet(), "no database query expected on cache hit")
}

func TestGetPaymentPolicy_UnknownOrganizationIsZeroPolicy(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT requires_payment, consultation_fee, payment_link").
		WithArgs("org-unknown").
		WillReturnRows(sqlmock.NewRows([]string{"requires_payment", "consultation_fee", "payment_link"}))

	provider := NewProvider(db, nil, time.Minute, logger.NewNoOpLogger())
	policy, err := provider.GetPaymentPolicy(context.Background(), "org-unknown")

	assert.NoError(t, err)
	assert.False(t, policy.RequiresPayment)
	assert.Zero(t, policy.ConsultationFee)
}

func TestGetPaymentPolicy_NullPaymentLink(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT requires_payment, consultation_fee, payment_link").
		WithArgs("org-3").
		WillReturnRows(sqlmock.NewRows([]string{"requires_payment", "consultation_fee", "payment_link"}).
			AddRow(false, 0.0, nil))

	provider := NewProvider(db, nil, time.Minute, logger.NewNoOpLogger())
	policy, err := provider.GetPaymentPolicy(context.Background(), "org-3")

	assert.NoError(t, err)
	assert.Empty(t, policy.PaymentLink)
}

func TestGetPaymentPolicy_DatabaseErrorReturnsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT requires_payment, consultation_fee, payment_link").
		WithArgs("org-4").
		WillReturnError(assert.AnError)

	provider := NewProvider(db, nil, time.Minute, logger.NewNoOpLogger())
	policy, err := provider.GetPaymentPolicy(context.Background(), "org-4")

	assert.Error(t, err)
	assert.Equal(t, models.PaymentPolicy{}, policy)
}

func TestGetPaymentPolicy_CorruptCacheFallsThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cache, cacheMock := redismock.NewClientMock()
	cacheMock.ExpectGet("org:payment-policy:org-5").SetVal("not json")
	cacheMock.Regexp().ExpectSet("org:payment-policy:org-5", `.*`, time.Minute).SetVal("OK")

	mock.ExpectQuery("SELECT requires_payment, consultation_fee, payment_link").
		WithArgs("org-5").
		WillReturnRows(sqlmock.NewRows([]string{"requires_payment", "consultation_fee", "payment_link"}).
			AddRow(true, 50.0, "https://pay.example/y"))

	provider := NewProvider(db, cache, time.Minute, logger.NewNoOpLogger())
	policy, err := provider.GetPaymentPolicy(context.Background(), "org-5")

	assert.NoError(t, err)
	assert.Equal(t, 50.0, policy.ConsultationFee)
	assert.NoError(t, mock.ExpectationsWereMet())
}
