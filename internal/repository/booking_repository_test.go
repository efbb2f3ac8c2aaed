package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/model"
)

const (
	lockRestaurantSQL = "SELECT name FROM restaurants WHERE id = ? FOR UPDATE"
	countSlotSQL      = "SELECT COUNT(*) FROM bookings"
	insertBookingSQL  = "INSERT INTO bookings"
	selectBookingSQL  = "FROM bookings b WHERE b.id = ?"
)

var bookingRowColumns = []string{
	"id", "user_id", "restaurant_id", "restaurant_name", "booking_date", "booking_time",
	"guests", "special_requests", "total_amount", "status", "payment_ref", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBookingRepo(db), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func bookingRow(id uint64, status model.BookingStatus) *sqlmock.Rows {
	at := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(bookingRowColumns).
		AddRow(id, 3, 7, "Bella Vista", "2025-06-01", "19:00", 2, nil, 50, string(status), nil, at, at)
}

func sampleNewBooking(capacity int) model.NewBooking {
	return model.NewBooking{
		UserID:        3,
		RestaurantID:  7,
		Date:          "2025-06-01",
		Time:          "19:00",
		Guests:        2,
		PricePerGuest: 25,
		Status:        model.StatusConfirmed,
		Capacity:      capacity,
	}
}

func TestCreateWithinCapacityInsertsUnderRowLock(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q(lockRestaurantSQL)).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Bella Vista"))
	mock.ExpectQuery(q(countSlotSQL)).WithArgs(7, "2025-06-01", "19:00", "pending", "confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectExec(q(insertBookingSQL)).
		WithArgs(3, 7, "Bella Vista", "2025-06-01", "19:00", 2, nil, int64(50), "confirmed").
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectQuery(q(selectBookingSQL)).WithArgs(41).WillReturnRows(bookingRow(41, model.StatusConfirmed))
	mock.ExpectCommit()

	b, err := repo.CreateWithinCapacity(context.Background(), sampleNewBooking(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(41), b.ID)
	assert.Equal(t, "Bella Vista", b.RestaurantName)
	assert.Equal(t, int64(50), b.TotalAmount)
	assert.Nil(t, b.PaymentRef)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithinCapacityRollsBackWhenSlotFull(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q(lockRestaurantSQL)).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Bella Vista"))
	mock.ExpectQuery(q(countSlotSQL)).WithArgs(7, "2025-06-01", "19:00", "pending", "confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	mock.ExpectRollback()

	_, err := repo.CreateWithinCapacity(context.Background(), sampleNewBooking(2))
	assert.ErrorIs(t, err, ErrSlotFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithinCapacityUnknownRestaurant(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q(lockRestaurantSQL)).WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectRollback()

	_, err := repo.CreateWithinCapacity(context.Background(), sampleNewBooking(2))
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithinCapacityZeroSkipsCount(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q(lockRestaurantSQL)).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Bella Vista"))
	mock.ExpectExec(q(insertBookingSQL)).WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(q(selectBookingSQL)).WithArgs(42).WillReturnRows(bookingRow(42, model.StatusConfirmed))
	mock.ExpectCommit()

	_, err := repo.CreateWithinCapacity(context.Background(), sampleNewBooking(0))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelForUserIsConditional(t *testing.T) {
	const cancelSQL = "UPDATE bookings SET status = ? WHERE id = ? AND user_id = ? AND status IN (?,?)"

	t.Run("no row matched", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(q(cancelSQL)).WithArgs("cancelled", 9, 3, "pending", "confirmed").
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := repo.CancelForUser(context.Background(), 9, 3)
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(q(cancelSQL)).WithArgs("cancelled", 9, 3, "pending", "confirmed").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q(selectBookingSQL)).WithArgs(9).WillReturnRows(bookingRow(9, model.StatusCancelled))

		b, err := repo.CancelForUser(context.Background(), 9, 3)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, b.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransition(t *testing.T) {
	const lockSQL = "SELECT status FROM bookings WHERE id = ? FOR UPDATE"

	t.Run("legal edge", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q(lockSQL)).WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
		mock.ExpectExec(q("UPDATE bookings SET status = ? WHERE id = ? AND status IN (?)")).
			WithArgs("confirmed", 5, "pending").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q(selectBookingSQL)).WithArgs(5).WillReturnRows(bookingRow(5, model.StatusConfirmed))
		mock.ExpectCommit()

		b, err := repo.Transition(context.Background(), 5, model.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, b.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("terminal state", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q(lockSQL)).WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))
		mock.ExpectRollback()

		_, err := repo.Transition(context.Background(), 5, model.StatusConfirmed)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing booking", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q(lockSQL)).WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"status"}))
		mock.ExpectRollback()

		_, err := repo.Transition(context.Background(), 5, model.StatusCancelled)
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStatsBindsStatuses(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("FROM bookings")).
		WithArgs("cancelled", "pending", "confirmed", "pending", "confirmed", "cancelled").
		WillReturnRows(sqlmock.NewRows([]string{"total", "revenue", "restaurants", "p", "c", "x"}).
			AddRow(6, 300, 2, 1, 3, 2))

	st, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), st.TotalBookings)
	assert.Equal(t, int64(300), st.TotalRevenue)
	assert.Equal(t, int64(1), st.PendingBookings)
	assert.Equal(t, int64(2), st.ByStatus[model.StatusCancelled])
	require.NoError(t, mock.ExpectationsWereMet())
}
