package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/assolink/cantine/internal/canteen"
	"github.com/assolink/cantine/internal/repository"
	mock_server "github.com/assolink/cantine/internal/server/mocks"
)

type outboxStub struct {
	mu    sync.Mutex
	tasks []*repository.OutboxTask
	err   error
}

func (o *outboxStub) Create(_ context.Context, task *repository.OutboxTask) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.tasks = append(o.tasks, task)
	return nil
}

type serverFixture struct {
	svc    *mock_server.MockCanteenService
	auth   *mock_server.MockAuthenticator
	outbox *outboxStub
	router http.Handler
	tenant *repository.Association
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	f := &serverFixture{
		svc:    mock_server.NewMockCanteenService(ctrl),
		auth:   mock_server.NewMockAuthenticator(ctrl),
		outbox: &outboxStub{},
		tenant: &repository.Association{
			ID:    "a-1",
			Name:  "Les Restos",
			Email: "contact@lesrestos.org",
		},
	}
	auditor := NewAuditManager(f.outbox, zap.NewNop(), 1, 8, time.Second)
	srv := New(f.svc, f.auth, auditor, zap.NewNop(), loc)
	f.router = srv.routes()
	return f
}

// do performs an authenticated request against the router.
func (f *serverFixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.SetBasicAuth(f.tenant.Email, "secret")
	f.auth.EXPECT().
		Authenticate(gomock.Any(), f.tenant.Email, "secret").
		Return(f.tenant, nil)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		f := newServerFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/canteen/orders", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("bad credentials", func(t *testing.T) {
		f := newServerFixture(t)

		f.auth.EXPECT().
			Authenticate(gomock.Any(), "x@example.org", "wrong").
			Return(nil, repository.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/canteen/orders", nil)
		req.SetBasicAuth("x@example.org", "wrong")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleAvailability(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().Availability(gomock.Any(), gomock.Any()).
			Return(&canteen.Availability{
				Day:       time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
				Quota:     40,
				Ordered:   25,
				Remaining: 15,
			}, nil)

		rec := f.do(t, http.MethodGet, "/canteen/availability?date=2025-06-14", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, "2025-06-14", body["date"])
		assert.Equal(t, float64(40), body["quota"])
		assert.Equal(t, float64(15), body["remaining"])
	})

	t.Run("missing date", func(t *testing.T) {
		f := newServerFixture(t)

		rec := f.do(t, http.MethodGet, "/canteen/availability", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing 'date' parameter", decodeBody(t, rec)["error"])
	})

	t.Run("malformed date", func(t *testing.T) {
		f := newServerFixture(t)

		rec := f.do(t, http.MethodGet, "/canteen/availability?date=14/06/2025", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlePlaceOrder(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().
			PlaceOrder(gomock.Any(), f.tenant, gomock.Any(), 5, "north").
			Return(&repository.Order{
				ID:          "o-1",
				DeliveryDay: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
				Quantity:    5,
				Status:      repository.StatusPending,
			}, nil)

		rec := f.do(t, http.MethodPost, "/canteen/orders", map[string]any{
			"date": "2025-06-14", "quantity": 5, "zone": "north",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, "o-1", body["id"])
		assert.Equal(t, "pending", body["status"])
	})

	t.Run("capacity exceeded carries max_allowed", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().
			PlaceOrder(gomock.Any(), f.tenant, gomock.Any(), 30, "").
			Return(nil, &canteen.CapacityError{Max: 15})

		rec := f.do(t, http.MethodPost, "/canteen/orders", map[string]any{
			"date": "2025-06-14", "quantity": 30,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, float64(15), body["max_allowed"])
		assert.Contains(t, body["error"], "maximum allowed: 15")
	})

	t.Run("validation error", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().
			PlaceOrder(gomock.Any(), f.tenant, gomock.Any(), 0, "").
			Return(nil, &canteen.ValidationError{Reason: "quantity must be at least 1"})

		rec := f.do(t, http.MethodPost, "/canteen/orders", map[string]any{
			"date": "2025-06-14", "quantity": 0,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "quantity must be at least 1", decodeBody(t, rec)["error"])
	})

	t.Run("missing date field", func(t *testing.T) {
		f := newServerFixture(t)

		rec := f.do(t, http.MethodPost, "/canteen/orders", map[string]any{"quantity": 5})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure is a plain 500", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().
			PlaceOrder(gomock.Any(), f.tenant, gomock.Any(), 5, "").
			Return(nil, errors.New("pq: connection reset"))

		rec := f.do(t, http.MethodPost, "/canteen/orders", map[string]any{
			"date": "2025-06-14", "quantity": 5,
		})
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal error", decodeBody(t, rec)["error"])
	})
}

func TestHandleModifyOrder(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().
			ModifyOrder(gomock.Any(), f.tenant, "o-1", 8).
			Return(&repository.Order{ID: "o-1", Quantity: 8}, nil)

		rec := f.do(t, http.MethodPut, "/canteen/orders/o-1/quantity", map[string]any{"quantity": 8})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(8), decodeBody(t, rec)["quantity"])
	})

	t.Run("unknown or foreign order is 404", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().
			ModifyOrder(gomock.Any(), f.tenant, "o-9", 8).
			Return(nil, canteen.ErrNotFound)

		rec := f.do(t, http.MethodPut, "/canteen/orders/o-9/quantity", map[string]any{"quantity": 8})
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "order not found", decodeBody(t, rec)["error"])
	})

	t.Run("window closed", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().
			ModifyOrder(gomock.Any(), f.tenant, "o-1", 8).
			Return(nil, canteen.ErrWindowClosed)

		rec := f.do(t, http.MethodPut, "/canteen/orders/o-1/quantity", map[string]any{"quantity": 8})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleCancelOrder(t *testing.T) {
	t.Run("without body", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().
			CancelOrder(gomock.Any(), f.tenant, "o-1", "").
			Return(&repository.Order{ID: "o-1", Status: repository.StatusCancelled}, nil)

		rec := f.do(t, http.MethodPut, "/canteen/orders/o-1/cancel", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cancelled", decodeBody(t, rec)["status"])
	})

	t.Run("with penalty", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().
			CancelOrder(gomock.Any(), f.tenant, "o-1", "15.00").
			Return(&repository.Order{ID: "o-1", Status: repository.StatusCancelled}, nil)

		rec := f.do(t, http.MethodPut, "/canteen/orders/o-1/cancel", map[string]any{"penalty": "15.00"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandleListOrders(t *testing.T) {
	f := newServerFixture(t)

	f.svc.EXPECT().
		ListOrders(gomock.Any(), f.tenant).
		Return([]*repository.Order{{ID: "o-1"}, {ID: "o-2"}}, nil)

	rec := f.do(t, http.MethodGet, "/canteen/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 2)
}

func TestHandleQuotas(t *testing.T) {
	t.Run("set quota", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().
			SetQuota(gomock.Any(), gomock.Any(), 40, "11:30", "13:30").
			Return(nil)

		rec := f.do(t, http.MethodPut, "/quotas/2025-06-14", map[string]any{
			"capacity": 40, "slot_start": "11:30", "slot_end": "13:30",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Quota saved", decodeBody(t, rec)["message"])
	})

	t.Run("list requires range params", func(t *testing.T) {
		f := newServerFixture(t)

		rec := f.do(t, http.MethodGet, "/quotas?from=2025-06-14", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list ok", func(t *testing.T) {
		f := newServerFixture(t)

		f.svc.EXPECT().
			ListQuotas(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]*repository.Quota{{ID: 1, Capacity: 40}}, nil)

		rec := f.do(t, http.MethodGet, "/quotas?from=2025-06-14&to=2025-06-20", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAuditManager(t *testing.T) {
	t.Run("events land in the outbox", func(t *testing.T) {
		outbox := &outboxStub{}
		m := NewAuditManager(outbox, zap.NewNop(), 2, 2, 50*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		m.Start(ctx)

		for i := 0; i < 4; i++ {
			m.Record(ctx, repository.AuditEvent{
				Handler:    "place_order",
				Method:     http.MethodPost,
				Path:       "/canteen/orders",
				StatusCode: http.StatusCreated,
				TenantID:   "a-1",
			})
		}

		assert.Eventually(t, func() bool {
			outbox.mu.Lock()
			defer outbox.mu.Unlock()
			return len(outbox.tasks) == 4
		}, 2*time.Second, 10*time.Millisecond)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
		defer shutdownCancel()
		m.Shutdown(shutdownCtx)

		outbox.mu.Lock()
		defer outbox.mu.Unlock()
		for _, task := range outbox.tasks {
			assert.Equal(t, "audit_logs", task.Topic)
			var event repository.AuditEvent
			require.NoError(t, json.Unmarshal(task.Payload, &event))
			assert.Equal(t, "place_order", event.Handler)
		}
	})

	t.Run("partial batch flushes on timeout", func(t *testing.T) {
		outbox := &outboxStub{}
		m := NewAuditManager(outbox, zap.NewNop(), 1, 100, 20*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		m.Start(ctx)

		m.Record(ctx, repository.AuditEvent{Handler: "availability"})

		assert.Eventually(t, func() bool {
			outbox.mu.Lock()
			defer outbox.mu.Unlock()
			return len(outbox.tasks) == 1
		}, 2*time.Second, 10*time.Millisecond)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
		defer shutdownCancel()
		m.Shutdown(shutdownCtx)
	})
}
