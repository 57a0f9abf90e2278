package canteen_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/assolink/cantine/internal/cache"
	"github.com/assolink/cantine/internal/canteen"
	mock_canteen "github.com/assolink/cantine/internal/canteen/mocks"
	"github.com/assolink/cantine/internal/db"
	mock_database "github.com/assolink/cantine/internal/db/mocks"
	"github.com/assolink/cantine/internal/mail"
	mock_mail "github.com/assolink/cantine/internal/mail/mocks"
	"github.com/assolink/cantine/internal/repository"
)

type serviceFixture struct {
	database *mock_database.MockDB
	tx       *mock_database.MockTx
	quotas   *mock_canteen.MockQuotaStore
	orders   *mock_canteen.MockOrderStore
	mailer   *mock_mail.MockMailer
	svc      *canteen.Service

	owner *repository.Association
	now   time.Time
	loc   *time.Location
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	loc := mustLocation(t)

	f := &serviceFixture{
		database: mock_database.NewMockDB(ctrl),
		tx:       mock_database.NewMockTx(ctrl),
		quotas:   mock_canteen.NewMockQuotaStore(ctrl),
		orders:   mock_canteen.NewMockOrderStore(ctrl),
		mailer:   mock_mail.NewMockMailer(ctrl),
		owner: &repository.Association{
			ID:    "9f3c2a44-0000-0000-0000-000000000001",
			Name:  "Les Restos",
			Email: "contact@lesrestos.org",
		},
		now: time.Date(2025, 6, 10, 9, 0, 0, 0, loc),
		loc: loc,
	}
	f.svc = canteen.NewService(f.database, f.quotas, f.orders, f.mailer, cache.NewQuotaCache(), zap.NewNop(), loc).
		WithClock(func() time.Time { return f.now })
	return f
}

// day returns midnight of now+offset days in the fixture location.
func (f *serviceFixture) day(offset int) time.Time {
	return repository.Day(f.now.AddDate(0, 0, offset), f.loc)
}

func (f *serviceFixture) expectTxCommit() {
	f.database.EXPECT().BeginTx(gomock.Any()).Return(db.Tx(f.tx), nil)
	f.tx.EXPECT().Commit(gomock.Any()).Return(nil)
}

func (f *serviceFixture) expectTxRollback() {
	f.database.EXPECT().BeginTx(gomock.Any()).Return(db.Tx(f.tx), nil)
	f.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
}

func (f *serviceFixture) quota(day time.Time, capacity int) *repository.Quota {
	return &repository.Quota{ID: 1, Day: day, Capacity: capacity}
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newServiceFixture(t)
		day := f.day(4)

		f.expectTxCommit()
		f.quotas.EXPECT().GetByDayTx(gomock.Any(), f.tx, day).Return(f.quota(day, 10), nil)
		f.orders.EXPECT().SumActiveQuantityTx(gomock.Any(), f.tx, day).Return(4, nil)
		f.orders.EXPECT().CreateTx(gomock.Any(), f.tx, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ db.Tx, order *repository.Order) error {
				assert.NotEmpty(t, order.ID)
				assert.Equal(t, f.owner.ID, order.OwnerID)
				assert.Equal(t, day, order.DeliveryDay)
				assert.Equal(t, 3, order.Quantity)
				assert.Equal(t, repository.StatusPending, order.Status)
				assert.True(t, order.CreatedAt.Equal(f.now), "CreatedAt follows the injected clock")
				assert.True(t, order.UpdatedAt.Equal(f.now), "UpdatedAt follows the injected clock")
				return nil
			})
		f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

		order, err := f.svc.PlaceOrder(ctx, f.owner, day, 3, "north")
		require.NoError(t, err)
		assert.Equal(t, 3, order.Quantity)
		assert.Equal(t, "north", order.Zone)
	})

	t.Run("fills the day exactly", func(t *testing.T) {
		f := newServiceFixture(t)
		day := f.day(4)

		f.expectTxCommit()
		f.quotas.EXPECT().GetByDayTx(gomock.Any(), f.tx, day).Return(f.quota(day, 10), nil)
		f.orders.EXPECT().SumActiveQuantityTx(gomock.Any(), f.tx, day).Return(8, nil)
		f.orders.EXPECT().CreateTx(gomock.Any(), f.tx, gomock.Any()).Return(nil)
		f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

		_, err := f.svc.PlaceOrder(ctx, f.owner, day, 2, "")
		assert.NoError(t, err)
	})

	t.Run("capacity exceeded reports max allowed", func(t *testing.T) {
		f := newServiceFixture(t)
		day := f.day(4)

		f.expectTxRollback()
		f.quotas.EXPECT().GetByDayTx(gomock.Any(), f.tx, day).Return(f.quota(day, 10), nil)
		f.orders.EXPECT().SumActiveQuantityTx(gomock.Any(), f.tx, day).Return(8, nil)

		_, err := f.svc.PlaceOrder(ctx, f.owner, day, 3, "")
		var capErr *canteen.CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, 2, capErr.Max)
	})

	t.Run("no quota configured means zero capacity", func(t *testing.T) {
		f := newServiceFixture(t)
		day := f.day(4)

		f.expectTxRollback()
		f.quotas.EXPECT().GetByDayTx(gomock.Any(), f.tx, day).Return(nil, repository.ErrNotFound)
		f.orders.EXPECT().SumActiveQuantityTx(gomock.Any(), f.tx, day).Return(0, nil)

		_, err := f.svc.PlaceOrder(ctx, f.owner, day, 1, "")
		var capErr *canteen.CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, 0, capErr.Max)
	})

	t.Run("quantity below one", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.svc.PlaceOrder(ctx, f.owner, f.day(4), 0, "")
		var valErr *canteen.ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("lead time too short", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.svc.PlaceOrder(ctx, f.owner, f.day(2), 1, "")
		var valErr *canteen.ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("notification failure does not fail the order", func(t *testing.T) {
		f := newServiceFixture(t)
		day := f.day(4)

		f.expectTxCommit()
		f.quotas.EXPECT().GetByDayTx(gomock.Any(), f.tx, day).Return(f.quota(day, 10), nil)
		f.orders.EXPECT().SumActiveQuantityTx(gomock.Any(), f.tx, day).Return(0, nil)
		f.orders.EXPECT().CreateTx(gomock.Any(), f.tx, gomock.Any()).Return(nil)
		f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

		order, err := f.svc.PlaceOrder(ctx, f.owner, day, 2, "")
		require.NoError(t, err)
		assert.NotNil(t, order)
	})
}

func TestModifyOrder(t *testing.T) {
	ctx := context.Background()
	const orderID = "c2e1a9e0-0000-0000-0000-00000000000a"

	existing := func(f *serviceFixture, quantity int, status repository.Status, dayOffset int) *repository.Order {
		return &repository.Order{
			ID:          orderID,
			OwnerID:     f.owner.ID,
			DeliveryDay: f.day(dayOffset),
			Quantity:    quantity,
			Status:      status,
		}
	}

	t.Run("success", func(t *testing.T) {
		f := newServiceFixture(t)
		order := existing(f, 3, repository.StatusPending, 4)
		day := order.DeliveryDay

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(order, nil)
		f.expectTxCommit()
		f.quotas.EXPECT().GetByDayTx(gomock.Any(), f.tx, day).Return(f.quota(day, 10), nil)
		f.orders.EXPECT().GetByIDTx(gomock.Any(), f.tx, orderID).Return(order, nil)
		f.orders.EXPECT().SumActiveQuantityTx(gomock.Any(), f.tx, day).Return(7, nil)
		f.orders.EXPECT().UpdateQuantityTx(gomock.Any(), f.tx, orderID, 6).Return(nil)
		f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

		updated, err := f.svc.ModifyOrder(ctx, f.owner, orderID, 6)
		require.NoError(t, err)
		assert.Equal(t, 6, updated.Quantity)
	})

	t.Run("current quantity always allowed", func(t *testing.T) {
		// Day is fully booked (sum 10 of 10): no growth is possible, but the
		// order may always restate the 4 units it already holds.
		f := newServiceFixture(t)
		order := existing(f, 4, repository.StatusPending, 4)
		day := order.DeliveryDay

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(order, nil)
		f.expectTxCommit()
		f.quotas.EXPECT().GetByDayTx(gomock.Any(), f.tx, day).Return(f.quota(day, 10), nil)
		f.orders.EXPECT().GetByIDTx(gomock.Any(), f.tx, orderID).Return(order, nil)
		f.orders.EXPECT().SumActiveQuantityTx(gomock.Any(), f.tx, day).Return(10, nil)
		f.orders.EXPECT().UpdateQuantityTx(gomock.Any(), f.tx, orderID, 4).Return(nil)
		f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

		_, err := f.svc.ModifyOrder(ctx, f.owner, orderID, 4)
		assert.NoError(t, err)
	})

	t.Run("exceeds max for update", func(t *testing.T) {
		f := newServiceFixture(t)
		order := existing(f, 4, repository.StatusPending, 4)
		day := order.DeliveryDay

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(order, nil)
		f.expectTxRollback()
		f.quotas.EXPECT().GetByDayTx(gomock.Any(), f.tx, day).Return(f.quota(day, 10), nil)
		f.orders.EXPECT().GetByIDTx(gomock.Any(), f.tx, orderID).Return(order, nil)
		f.orders.EXPECT().SumActiveQuantityTx(gomock.Any(), f.tx, day).Return(10, nil)

		_, err := f.svc.ModifyOrder(ctx, f.owner, orderID, 6)
		var capErr *canteen.CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, 4, capErr.Max)
	})

	t.Run("window closed on delivery eve", func(t *testing.T) {
		f := newServiceFixture(t)
		order := existing(f, 3, repository.StatusPending, 1)

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(order, nil)

		_, err := f.svc.ModifyOrder(ctx, f.owner, orderID, 2)
		assert.ErrorIs(t, err, canteen.ErrWindowClosed)
	})

	t.Run("cancelled order cannot be modified", func(t *testing.T) {
		f := newServiceFixture(t)
		order := existing(f, 3, repository.StatusCancelled, 4)

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(order, nil)

		_, err := f.svc.ModifyOrder(ctx, f.owner, orderID, 2)
		assert.ErrorIs(t, err, canteen.ErrWindowClosed)
	})

	t.Run("quantity below one", func(t *testing.T) {
		f := newServiceFixture(t)
		order := existing(f, 3, repository.StatusPending, 4)

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(order, nil)

		_, err := f.svc.ModifyOrder(ctx, f.owner, orderID, 0)
		var valErr *canteen.ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newServiceFixture(t)

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(nil, repository.ErrNotFound)

		_, err := f.svc.ModifyOrder(ctx, f.owner, orderID, 2)
		assert.ErrorIs(t, err, canteen.ErrNotFound)
	})

	t.Run("foreign order reads as not found", func(t *testing.T) {
		f := newServiceFixture(t)
		order := existing(f, 3, repository.StatusPending, 4)
		order.OwnerID = "someone-else"

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(order, nil)

		_, err := f.svc.ModifyOrder(ctx, f.owner, orderID, 2)
		assert.ErrorIs(t, err, canteen.ErrNotFound)
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	const orderID = "c2e1a9e0-0000-0000-0000-00000000000b"

	existing := func(f *serviceFixture, status repository.Status, dayOffset int) *repository.Order {
		return &repository.Order{
			ID:          orderID,
			OwnerID:     f.owner.ID,
			DeliveryDay: f.day(dayOffset),
			Quantity:    3,
			Status:      status,
		}
	}

	t.Run("success with penalty", func(t *testing.T) {
		f := newServiceFixture(t)
		order := existing(f, repository.StatusPending, 2)

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(order, nil)
		f.expectTxCommit()
		f.orders.EXPECT().GetByIDTx(gomock.Any(), f.tx, orderID).Return(order, nil)
		f.orders.EXPECT().UpdateStatusTx(gomock.Any(), f.tx, orderID, repository.StatusCancelled).Return(nil)
		f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msg mail.Message) error {
				assert.Equal(t, mail.TemplateOrderCancelled, msg.TemplateID)
				assert.Equal(t, "15.00", msg.Vars["penalty"])
				return nil
			})

		cancelled, err := f.svc.CancelOrder(ctx, f.owner, orderID, "15.00")
		require.NoError(t, err)
		assert.Equal(t, repository.StatusCancelled, cancelled.Status)
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newServiceFixture(t)
		order := existing(f, repository.StatusCancelled, 2)

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(order, nil)

		_, err := f.svc.CancelOrder(ctx, f.owner, orderID, "")
		assert.ErrorIs(t, err, canteen.ErrWindowClosed)
	})

	t.Run("cancelled concurrently between read and lock", func(t *testing.T) {
		f := newServiceFixture(t)
		order := existing(f, repository.StatusPending, 2)
		locked := existing(f, repository.StatusCancelled, 2)

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(order, nil)
		f.expectTxRollback()
		f.orders.EXPECT().GetByIDTx(gomock.Any(), f.tx, orderID).Return(locked, nil)

		_, err := f.svc.CancelOrder(ctx, f.owner, orderID, "")
		assert.ErrorIs(t, err, canteen.ErrWindowClosed)
	})

	t.Run("delivery day reached", func(t *testing.T) {
		f := newServiceFixture(t)
		order := existing(f, repository.StatusPending, 0)

		f.orders.EXPECT().GetByID(gomock.Any(), orderID).Return(order, nil)

		_, err := f.svc.CancelOrder(ctx, f.owner, orderID, "")
		assert.ErrorIs(t, err, canteen.ErrWindowClosed)
	})
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("quota and active sum combined", func(t *testing.T) {
		f := newServiceFixture(t)
		day := f.day(4)

		f.quotas.EXPECT().GetByDay(gomock.Any(), day).Return(f.quota(day, 10), nil)
		f.orders.EXPECT().SumActiveQuantity(gomock.Any(), day).Return(7, nil)

		avail, err := f.svc.Availability(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 10, avail.Quota)
		assert.Equal(t, 7, avail.Ordered)
		assert.Equal(t, 3, avail.Remaining)
	})

	t.Run("quota served from cache on second read", func(t *testing.T) {
		f := newServiceFixture(t)
		day := f.day(4)

		f.quotas.EXPECT().GetByDay(gomock.Any(), day).Return(f.quota(day, 10), nil).Times(1)
		f.orders.EXPECT().SumActiveQuantity(gomock.Any(), day).Return(0, nil).Times(2)

		_, err := f.svc.Availability(ctx, day)
		require.NoError(t, err)
		_, err = f.svc.Availability(ctx, day)
		require.NoError(t, err)
	})

	t.Run("missing quota row", func(t *testing.T) {
		f := newServiceFixture(t)
		day := f.day(4)

		f.quotas.EXPECT().GetByDay(gomock.Any(), day).Return(nil, repository.ErrNotFound)
		f.orders.EXPECT().SumActiveQuantity(gomock.Any(), day).Return(2, nil)

		avail, err := f.svc.Availability(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 0, avail.Quota)
		assert.Equal(t, 0, avail.Remaining)
	})
}

func TestSetQuota(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects negative capacity", func(t *testing.T) {
		f := newServiceFixture(t)

		err := f.svc.SetQuota(ctx, f.day(4), -1, "", "")
		var valErr *canteen.ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("upsert invalidates the cached quota", func(t *testing.T) {
		f := newServiceFixture(t)
		day := f.day(4)

		// Warm the cache, change the quota, then expect a fresh read.
		f.quotas.EXPECT().GetByDay(gomock.Any(), day).Return(f.quota(day, 10), nil)
		f.orders.EXPECT().SumActiveQuantity(gomock.Any(), day).Return(0, nil).Times(2)
		_, err := f.svc.Availability(ctx, day)
		require.NoError(t, err)

		f.quotas.EXPECT().Upsert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, quota *repository.Quota) error {
				assert.Equal(t, day, quota.Day)
				assert.Equal(t, 20, quota.Capacity)
				return nil
			})
		require.NoError(t, f.svc.SetQuota(ctx, day, 20, "11:30", "13:30"))

		f.quotas.EXPECT().GetByDay(gomock.Any(), day).Return(f.quota(day, 20), nil)
		avail, err := f.svc.Availability(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 20, avail.Quota)
	})
}
