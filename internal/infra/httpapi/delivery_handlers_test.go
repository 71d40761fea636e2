package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"delivery_scheduler/internal/app"
	"delivery_scheduler/internal/domain/delivery"
	"delivery_scheduler/internal/domain/subscription"
	idb "delivery_scheduler/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubscriptionRepo struct {
	known map[uuid.UUID]bool
}

func (r *stubSubscriptionRepo) Create(_ context.Context, sub *subscription.Subscription) error {
	r.known[sub.ID] = true
	return nil
}

func (r *stubSubscriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	if !r.known[id] {
		return nil, idb.ErrSubscriptionNotFound
	}
	return &subscription.Subscription{ID: id}, nil
}

func (r *stubSubscriptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.known, id)
	return nil
}

type stubLedgerRepo struct {
	ledgers map[uuid.UUID]*delivery.Ledger
}

func (r *stubLedgerRepo) Create(_ context.Context, ledger *delivery.Ledger) error {
	r.ledgers[ledger.SubscriptionID] = ledger
	return nil
}

func (r *stubLedgerRepo) Update(_ context.Context, ledger *delivery.Ledger) error {
	if _, ok := r.ledgers[ledger.SubscriptionID]; !ok {
		return idb.ErrLedgerNotFound
	}
	r.ledgers[ledger.SubscriptionID] = ledger
	return nil
}

func (r *stubLedgerRepo) GetBySubscriptionID(_ context.Context, subscriptionID uuid.UUID) (*delivery.Ledger, error) {
	ledger, ok := r.ledgers[subscriptionID]
	if !ok {
		return nil, idb.ErrLedgerNotFound
	}
	return ledger, nil
}

func (r *stubLedgerRepo) ListAll(_ context.Context) ([]*delivery.Ledger, error) {
	out := make([]*delivery.Ledger, 0, len(r.ledgers))
	for _, ledger := range r.ledgers {
		out = append(out, ledger)
	}
	return out, nil
}

func (r *stubLedgerRepo) DeleteBySubscriptionID(_ context.Context, subscriptionID uuid.UUID) error {
	delete(r.ledgers, subscriptionID)
	return nil
}

const testCronToken = "sweep-secret"

func newTestServer(t *testing.T, now time.Time) (http.Handler, uuid.UUID) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	subID := uuid.New()
	subs := &stubSubscriptionRepo{known: map[uuid.UUID]bool{subID: true}}
	ledgers := &stubLedgerRepo{ledgers: make(map[uuid.UUID]*delivery.Ledger)}

	clock := func() time.Time { return now }
	deliveries := app.NewDeliveryService(subs, ledgers, loc, clock, log)
	sweeps := app.NewSweepService(ledgers, loc, clock, log)

	return NewServer(NewDeliveryHandler(deliveries, sweeps, loc), testCronToken), subID
}

func istTime(t *testing.T, day, hour int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return time.Date(2025, time.October, day, hour, 0, 0, 0, loc)
}

func doJSON(h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSaveConfigEndpoint(t *testing.T) {
	h, subID := newTestServer(t, istTime(t, 15, 10))

	rec := doJSON(h, http.MethodPost, "/api/delivery/config/"+subID.String(),
		`{"days":["monday","thursday"],"quantity":2}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Config saved and logs generated")

	// Second save on the same subscription takes the update branch.
	rec = doJSON(h, http.MethodPost, "/api/delivery/config/"+subID.String(),
		`{"days":["friday"],"quantity":1}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Config updated and future logs regenerated")

	// Invalid config is a 400.
	rec = doJSON(h, http.MethodPost, "/api/delivery/config/"+subID.String(),
		`{"days":[],"quantity":2}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown subscription is a 404.
	rec = doJSON(h, http.MethodPost, "/api/delivery/config/"+uuid.NewString(),
		`{"days":["monday"],"quantity":2}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogsEndpoint(t *testing.T) {
	h, subID := newTestServer(t, istTime(t, 15, 10))

	rec := doJSON(h, http.MethodGet, "/api/delivery/logs/"+subID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no ledger yet")

	doJSON(h, http.MethodPost, "/api/delivery/config/"+subID.String(),
		`{"days":["thursday"],"quantity":2}`, nil)

	rec = doJSON(h, http.MethodGet, "/api/delivery/logs/"+subID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity":2`)

	rec = doJSON(h, http.MethodGet, "/api/delivery/full/"+subID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), subID.String())

	rec = doJSON(h, http.MethodGet, "/api/delivery/logs/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverrideEndpointCutOff(t *testing.T) {
	// 14:00 on the 15th: tomorrow (the 16th) is past the noon cut-off.
	h, subID := newTestServer(t, istTime(t, 15, 14))
	doJSON(h, http.MethodPost, "/api/delivery/config/"+subID.String(),
		`{"days":["monday","thursday"],"quantity":2}`, nil)

	rec := doJSON(h, http.MethodPost, "/api/delivery/logs/override/"+subID.String(),
		`{"date":"2025-10-16","cancel":true}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(h, http.MethodPost, "/api/delivery/logs/override/"+subID.String(),
		`{"date":"2025-10-20","cancel":true}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(h, http.MethodPost, "/api/delivery/logs/override/"+subID.String(),
		`{"date":"2025-10-20"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "neither cancel nor quantity")

	rec = doJSON(h, http.MethodPost, "/api/delivery/logs/override/"+subID.String(),
		`{"cancel":true}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing date")
}

func TestCronEndpointRequiresToken(t *testing.T) {
	h, _ := newTestServer(t, istTime(t, 1, 0))

	rec := doJSON(h, http.MethodPost, "/api/delivery/cron/generate-monthly", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(h, http.MethodPost, "/api/delivery/cron/generate-monthly", "",
		map[string]string{"X-Cron-Token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(h, http.MethodPost, "/api/delivery/cron/generate-monthly", "",
		map[string]string{"X-Cron-Token": testCronToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Monthly delivery logs generated")
}
