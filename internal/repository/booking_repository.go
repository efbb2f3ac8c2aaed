package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/table-reservation/internal/model"
)

// BookingRepo persists bookings. Dates are stored as DATE and times as TIME;
// both are rendered back as YYYY-MM-DD and HH:MM. All timestamp fields are
// assumed to be stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.user_id, b.restaurant_id, b.restaurant_name,
	DATE_FORMAT(b.booking_date, '%Y-%m-%d'), TIME_FORMAT(b.booking_time, '%H:%i'),
	b.guests, b.special_requests, b.total_amount, b.status, b.payment_ref,
	b.created_at, b.updated_at`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// statusIn renders "?,?" placeholders and their args for a status set.
func statusIn(sts []model.BookingStatus) (string, []any) {
	ph := make([]string, len(sts))
	args := make([]any, len(sts))
	for i, s := range sts {
		ph[i] = "?"
		args[i] = string(s)
	}
	return strings.Join(ph, ","), args
}

// CreateWithinCapacity inserts a booking if its slot still has room.
//
// The restaurant row is locked with SELECT ... FOR UPDATE so concurrent
// creators for the same restaurant serialize; the active-booking count and
// the insert happen under that lock in one transaction. The restaurant name
// snapshot is taken from the locked row. Returns ErrNotFound for an unknown
// restaurant and ErrSlotFull when the slot is at capacity.
func (r *BookingRepo) CreateWithinCapacity(ctx context.Context, nb model.NewBooking) (model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var restaurantName string
	err = tx.QueryRowContext(ctx, "SELECT name FROM restaurants WHERE id = ? FOR UPDATE", nb.RestaurantID).Scan(&restaurantName)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("lock restaurant: %w", err)
	}

	if nb.Capacity > 0 {
		ph, sargs := statusIn(model.ActiveStatuses())
		args := append([]any{nb.RestaurantID, nb.Date, nb.Time}, sargs...)
		var active int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bookings
			 WHERE restaurant_id = ? AND booking_date = ? AND booking_time = ? AND status IN (`+ph+`)`,
			args...).Scan(&active)
		if err != nil {
			return model.Booking{}, fmt.Errorf("count slot: %w", err)
		}
		if active >= nb.Capacity {
			return model.Booking{}, ErrSlotFull
		}
	}

	var special any
	if nb.SpecialRequests != "" {
		special = nb.SpecialRequests
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, restaurant_id, restaurant_name, booking_date, booking_time,
		                       guests, special_requests, total_amount, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nb.UserID, nb.RestaurantID, restaurantName, nb.Date, nb.Time,
		nb.Guests, special, int64(nb.Guests)*nb.PricePerGuest, string(nb.Status))
	if err != nil {
		return model.Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Booking{}, err
	}
	// Query back the full row to populate timestamps and defaults.
	b, err := getBooking(ctx, tx, uint64(id))
	if err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, fmt.Errorf("commit booking: %w", err)
	}
	committed = true
	return b, nil
}

// GetByID returns ErrNotFound when the booking does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return getBooking(ctx, r.db, id)
}

func getBooking(ctx context.Context, q queryer, id uint64) (model.Booking, error) {
	b, err := scanBooking(q.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings b WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("select booking: %w", err)
	}
	return b, nil
}

// ListByUser returns the user's bookings in insertion order, never nil.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings b WHERE b.user_id = ? ORDER BY b.id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CancelForUser moves an owned, active booking to cancelled. A missing,
// foreign or already cancelled booking all yield ErrNotFound.
func (r *BookingRepo) CancelForUser(ctx context.Context, id, userID uint64) (model.Booking, error) {
	ph, sargs := statusIn(model.SourcesFor(model.StatusCancelled))
	args := append([]any{string(model.StatusCancelled), id, userID}, sargs...)
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status = ? WHERE id = ? AND user_id = ? AND status IN ("+ph+")", args...)
	if err != nil {
		return model.Booking{}, fmt.Errorf("cancel booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Booking{}, err
	}
	if n == 0 {
		return model.Booking{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Transition applies an arbitrary status change under a row lock. The
// current status is checked against the transition table and the UPDATE
// is conditional on the legal source states.
func (r *BookingRepo) Transition(ctx context.Context, id uint64, to model.BookingStatus) (model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var cur string
	err = tx.QueryRowContext(ctx, "SELECT status FROM bookings WHERE id = ? FOR UPDATE", id).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("lock booking: %w", err)
	}
	if !model.BookingStatus(cur).CanTransitionTo(to) {
		return model.Booking{}, ErrInvalidTransition
	}

	ph, sargs := statusIn(model.SourcesFor(to))
	args := append([]any{string(to), id}, sargs...)
	res, err := tx.ExecContext(ctx, "UPDATE bookings SET status = ? WHERE id = ? AND status IN ("+ph+")", args...)
	if err != nil {
		return model.Booking{}, fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Booking{}, ErrInvalidTransition
	}
	b, err := getBooking(ctx, tx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, fmt.Errorf("commit status: %w", err)
	}
	committed = true
	return b, nil
}

// SetPaymentRef records the latest payment intent id for a booking.
func (r *BookingRepo) SetPaymentRef(ctx context.Context, id uint64, ref string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE bookings SET payment_ref = ? WHERE id = ?", ref, id)
	if err != nil {
		return fmt.Errorf("set payment ref: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 when the value is unchanged; only a missing row matters.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// CountActiveBySlot returns active booking counts keyed by HH:MM for one
// restaurant and date.
func (r *BookingRepo) CountActiveBySlot(ctx context.Context, restaurantID uint64, date string) (map[string]int, error) {
	ph, sargs := statusIn(model.ActiveStatuses())
	args := append([]any{restaurantID, date}, sargs...)
	rows, err := r.db.QueryContext(ctx,
		`SELECT TIME_FORMAT(booking_time, '%H:%i'), COUNT(*) FROM bookings
		 WHERE restaurant_id = ? AND booking_date = ? AND status IN (`+ph+`)
		 GROUP BY booking_time`, args...)
	if err != nil {
		return nil, fmt.Errorf("count slots: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			slot string
			n    int
		)
		if err := rows.Scan(&slot, &n); err != nil {
			return nil, err
		}
		out[slot] = n
	}
	return out, rows.Err()
}

// ListAllDetailed joins every booking with its owner and the current
// restaurant name, newest first.
func (r *BookingRepo) ListAllDetailed(ctx context.Context) ([]model.AdminBooking, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bookingColumns+`, COALESCE(u.name, ''), COALESCE(u.email, ''), COALESCE(rs.name, b.restaurant_name)
		 FROM bookings b
		 LEFT JOIN users u ON u.id = b.user_id
		 LEFT JOIN restaurants rs ON rs.id = b.restaurant_id
		 ORDER BY b.created_at DESC, b.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list admin bookings: %w", err)
	}
	defer rows.Close()

	out := []model.AdminBooking{}
	for rows.Next() {
		var ab model.AdminBooking
		var special, ref sql.NullString
		var status string
		b := &ab.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.RestaurantID, &b.RestaurantName, &b.Date, &b.Time,
			&b.Guests, &special, &b.TotalAmount, &status, &ref, &b.CreatedAt, &b.UpdatedAt,
			&ab.UserName, &ab.UserEmail, &ab.CurrentRestaurantName); err != nil {
			return nil, err
		}
		fillNullable(b, special, ref, status)
		out = append(out, ab)
	}
	return out, rows.Err()
}

// Stats computes the admin dashboard aggregates in one pass.
func (r *BookingRepo) Stats(ctx context.Context) (model.BookingStats, error) {
	var (
		st                            model.BookingStats
		pending, confirmed, cancelled int64
	)
	ph, active := statusIn(model.ActiveStatuses())
	args := append([]any{string(model.StatusCancelled)}, active...)
	args = append(args, string(model.StatusPending), string(model.StatusConfirmed), string(model.StatusCancelled))
	err := r.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status <> ? THEN total_amount ELSE 0 END), 0),
			COUNT(DISTINCT CASE WHEN status IN (`+ph+`) THEN restaurant_id END),
			COALESCE(SUM(status = ?), 0),
			COALESCE(SUM(status = ?), 0),
			COALESCE(SUM(status = ?), 0)
		FROM bookings`, args...).Scan(&st.TotalBookings, &st.TotalRevenue, &st.ActiveRestaurants, &pending, &confirmed, &cancelled)
	if err != nil {
		return model.BookingStats{}, fmt.Errorf("booking stats: %w", err)
	}
	st.PendingBookings = pending
	st.ByStatus = map[model.BookingStatus]int64{
		model.StatusPending:   pending,
		model.StatusConfirmed: confirmed,
		model.StatusCancelled: cancelled,
	}
	return st, nil
}

func scanBooking(s scanner) (model.Booking, error) {
	var (
		b            model.Booking
		special, ref sql.NullString
		status       string
	)
	err := s.Scan(&b.ID, &b.UserID, &b.RestaurantID, &b.RestaurantName, &b.Date, &b.Time,
		&b.Guests, &special, &b.TotalAmount, &status, &ref, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	fillNullable(&b, special, ref, status)
	return b, nil
}

func fillNullable(b *model.Booking, special, ref sql.NullString, status string) {
	b.SpecialRequests = special.String
	b.Status = model.BookingStatus(status)
	if ref.Valid {
		pr := ref.String
		b.PaymentRef = &pr
	}
}
