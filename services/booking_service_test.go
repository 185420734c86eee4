package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-booking/events"
	"room-booking/policy"
)

var bookingColumns = []string{"id", "room_id", "user_id", "date", "created_at", "updated_at"}

func bookingRow(id, roomID, userID uint, day string) *sqlmock.Rows {
	d, _ := time.Parse("2006-01-02", day)
	now := time.Now()
	return sqlmock.NewRows(bookingColumns).AddRow(id, roomID, userID, d, now, now)
}

func duplicateBookingErr() error {
	return &mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry '1-2024-06-01' for key 'uq_bookings_room_date'"}
}

func newBookingSvc(t *testing.T) (*BookingService, sqlmock.Sqlmock, *recordingPublisher) {
	db, mock := newMockDB(t)
	pub := &recordingPublisher{}
	return NewBookingService(db, pub, discardLogger()), mock, pub
}

func bookingInput(roomID uint, day string) BookingInput {
	return BookingInput{RoomID: &roomID, Date: &day}
}

func TestBookingService_CreateOwnerIsActor(t *testing.T) {
	svc, mock, pub := newBookingSvc(t)

	mock.ExpectExec("INSERT INTO `bookings`").
		WithArgs(1, alice.UserID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))

	b, err := svc.Create(context.Background(), alice, bookingInput(1, "2024-06-01"))
	require.NoError(t, err)
	assert.Equal(t, uint(11), b.ID)
	assert.Equal(t, alice.UserID, b.UserID)
	assert.Equal(t, "2024-06-01", b.Day())
	assert.Equal(t, []string{events.BookingCreated}, pub.types())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_CreateAnonymous(t *testing.T) {
	svc, mock, pub := newBookingSvc(t)

	_, err := svc.Create(context.Background(), anonymous, bookingInput(1, "2024-06-01"))
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, pub.types())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_CreateValidation(t *testing.T) {
	svc, mock, _ := newBookingSvc(t)

	day := "2024-06-01"
	bad := "01/06/2024"
	tests := []struct {
		name  string
		in    BookingInput
		field string
	}{
		{"missing room", BookingInput{Date: &day}, "room"},
		{"missing date", BookingInput{RoomID: ptr(uint(1))}, "date"},
		{"malformed date", BookingInput{RoomID: ptr(uint(1)), Date: &bad}, "date"},
		{"impossible date", bookingInput(1, "2024-02-30"), "date"},
		{"year before 1000", bookingInput(1, "0500-01-01"), "date"},
		{"year zero", bookingInput(1, "0000-06-01"), "date"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), alice, tc.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_CreateDuplicate(t *testing.T) {
	svc, mock, pub := newBookingSvc(t)

	mock.ExpectExec("INSERT INTO `bookings`").WillReturnError(duplicateBookingErr())

	_, err := svc.Create(context.Background(), bob, bookingInput(1, "2024-06-01"))
	assert.ErrorIs(t, err, ErrDuplicateBooking)
	assert.Empty(t, pub.types())
}

func TestParseDate_Range(t *testing.T) {
	for _, ok := range []string{"1000-01-01", "2024-06-01", "9999-12-31", " 2024-06-01 "} {
		_, err := ParseDate(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"0999-12-31", "0001-01-01", "10000-01-01", "2024-6-1"} {
		_, err := ParseDate(bad)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, bad)
	}
}

func TestBookingService_CreateUnknownRoom(t *testing.T) {
	svc, mock, _ := newBookingSvc(t)

	mock.ExpectExec("INSERT INTO `bookings`").
		WillReturnError(&mysqldrv.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

	_, err := svc.Create(context.Background(), bob, bookingInput(404, "2024-06-01"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingService_ConcurrentCreateLoserIsDuplicate(t *testing.T) {
	svc, mock, _ := newBookingSvc(t)
	mock.MatchExpectationsInOrder(false)

	// the database rule itself is exercised in booking_integration_test.go
	mock.ExpectExec("INSERT INTO `bookings`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `bookings`").WillReturnError(duplicateBookingErr())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, actor := range []policy.Actor{alice, bob} {
		wg.Add(1)
		go func(i int, actor policy.Actor) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), actor, bookingInput(1, "2024-06-01"))
		}(i, actor)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateBooking):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_ListScoping(t *testing.T) {
	svc, mock, _ := newBookingSvc(t)
	ctx := context.Background()

	got, err := svc.List(ctx, anonymous)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE user_id = \\? ORDER BY id").
		WithArgs(alice.UserID).
		WillReturnRows(bookingRow(1, 1, alice.UserID, "2024-06-01"))
	got, err = svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, got, 1)

	rows := bookingRow(1, 1, alice.UserID, "2024-06-01")
	rows.AddRow(2, 2, bob.UserID, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), time.Now(), time.Now())
	mock.ExpectQuery("SELECT \\* FROM `bookings` ORDER BY id").WillReturnRows(rows)
	got, err = svc.List(ctx, staff)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_DetailAccess(t *testing.T) {
	svc, mock, _ := newBookingSvc(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, anonymous, 1)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows(bookingColumns))
	_, err = svc.Get(ctx, alice, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, actor := range []struct {
		name string
		id   uint
		want error
	}{
		{"owner", alice.UserID, nil},
		{"other user", bob.UserID, ErrForbidden},
	} {
		mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE id = \\?").
			WillReturnRows(bookingRow(1, 1, alice.UserID, "2024-06-01"))
		a := alice
		a.UserID = actor.id
		_, err := svc.Get(ctx, a, 1)
		if actor.want == nil {
			assert.NoError(t, err, actor.name)
		} else {
			assert.ErrorIs(t, err, actor.want, actor.name)
		}
	}

	mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE id = \\?").
		WillReturnRows(bookingRow(1, 1, alice.UserID, "2024-06-01"))
	_, err = svc.Get(ctx, staff, 1)
	assert.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_UpdateByOwnerKeepsOwner(t *testing.T) {
	svc, mock, pub := newBookingSvc(t)

	mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE id = \\?").
		WillReturnRows(bookingRow(1, 1, alice.UserID, "2024-06-01"))
	mock.ExpectExec("UPDATE `bookings` SET `room_id`=\\?,`date`=\\?,`updated_at`=\\? WHERE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	day := "2024-06-03"
	b, err := svc.Update(context.Background(), alice, 1, BookingInput{Date: &day}, true)
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, b.UserID)
	assert.Equal(t, uint(1), b.RoomID)
	assert.Equal(t, "2024-06-03", b.Day())
	assert.Equal(t, []string{events.BookingUpdated}, pub.types())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_UpdateByOtherUserForbidden(t *testing.T) {
	svc, mock, _ := newBookingSvc(t)

	mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE id = \\?").
		WillReturnRows(bookingRow(1, 1, alice.UserID, "2024-06-01"))

	_, err := svc.Update(context.Background(), bob, 1, bookingInput(2, "2024-06-05"), false)
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_UpdateIntoTakenSlot(t *testing.T) {
	svc, mock, _ := newBookingSvc(t)

	mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE id = \\?").
		WillReturnRows(bookingRow(1, 1, alice.UserID, "2024-06-01"))
	mock.ExpectExec("UPDATE `bookings` SET").WillReturnError(duplicateBookingErr())

	_, err := svc.Update(context.Background(), staff, 1, bookingInput(2, "2024-06-05"), false)
	assert.ErrorIs(t, err, ErrDuplicateBooking)
}

func TestBookingService_FullUpdateNeedsBothFields(t *testing.T) {
	svc, mock, _ := newBookingSvc(t)

	day := "2024-06-05"
	_, err := svc.Update(context.Background(), alice, 1, BookingInput{Date: &day}, false)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "room", verr.Field)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_Delete(t *testing.T) {
	svc, mock, pub := newBookingSvc(t)

	mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE id = \\?").
		WillReturnRows(bookingRow(1, 1, alice.UserID, "2024-06-01"))
	mock.ExpectExec("DELETE FROM `bookings` WHERE .*id.? = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Delete(context.Background(), alice, 1))
	assert.Equal(t, []string{events.BookingDeleted}, pub.types())

	mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE id = \\?").
		WillReturnRows(bookingRow(1, 1, alice.UserID, "2024-06-01"))
	assert.ErrorIs(t, svc.Delete(context.Background(), bob, 1), ErrForbidden)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_PublishFailureDoesNotFailRequest(t *testing.T) {
	svc, mock, pub := newBookingSvc(t)
	pub.err = errors.New("broker down")

	mock.ExpectExec("INSERT INTO `bookings`").WillReturnResult(sqlmock.NewResult(5, 1))

	_, err := svc.Create(context.Background(), alice, bookingInput(1, "2024-06-01"))
	require.NoError(t, err)
}

// Room 1 is booked by A; B cannot take the same date nor read A's booking.
func TestBookingService_TwoGuestsOneRoom(t *testing.T) {
	svc, mock, _ := newBookingSvc(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO `bookings`").
		WithArgs(1, alice.UserID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	b, err := svc.Create(ctx, alice, bookingInput(1, "2024-06-01"))
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO `bookings`").WillReturnError(duplicateBookingErr())
	_, err = svc.Create(ctx, bob, bookingInput(1, "2024-06-01"))
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE id = \\?").
		WillReturnRows(bookingRow(b.ID, 1, alice.UserID, "2024-06-01"))
	got, err := svc.Get(ctx, alice, b.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, got.UserID)

	mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE id = \\?").
		WillReturnRows(bookingRow(b.ID, 1, alice.UserID, "2024-06-01"))
	_, err = svc.Get(ctx, bob, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, mock.ExpectationsWereMet())
}
