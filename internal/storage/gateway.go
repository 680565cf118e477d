// Package storage is the persistence gateway for cabins, bookings and guests.
// Every mutating call is scoped by an equality filter so ownership checks can
// be pushed into the same statement that writes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gdg-garage/cabin-booking-api/internal/availability"
	"github.com/gdg-garage/cabin-booking-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOverlap is returned when a booking would intersect a stored booking of the same cabin.
	ErrOverlap = errors.New("booking overlaps an existing booking")
	// ErrEmptyFilter guards update and delete calls against touching a whole table.
	ErrEmptyFilter = errors.New("filter must not be empty")
)

// Filter is a set of column = value conditions joined with AND.
type Filter map[string]any

// Patch is a set of column = value assignments.
type Patch map[string]any

type Gateway interface {
	Cabin(ctx context.Context, id uint) (*models.Cabin, error)
	Settings(ctx context.Context) (*models.Settings, error)
	BookedDates(ctx context.Context, cabinID uint) ([]time.Time, error)

	SelectBookings(ctx context.Context, filter Filter) ([]models.Booking, error)
	InsertBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	UpdateBookings(ctx context.Context, filter Filter, patch Patch) (int64, error)
	DeleteBookings(ctx context.Context, filter Filter) (int64, error)

	Guest(ctx context.Context, id uint) (*models.Guest, error)
	FindOrCreateGuest(ctx context.Context, email, fullName string) (*models.Guest, error)
	UpdateGuests(ctx context.Context, filter Filter, patch Patch) (int64, error)
}

type GormGateway struct {
	db *gorm.DB
}

func NewGormGateway(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

func (g *GormGateway) Cabin(ctx context.Context, id uint) (*models.Cabin, error) {
	var cabin models.Cabin
	if err := g.db.WithContext(ctx).First(&cabin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get cabin: %w", err)
	}
	return &cabin, nil
}

func (g *GormGateway) Settings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	if err := g.db.WithContext(ctx).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

// BookedDates expands every stored booking of the cabin into the calendar days
// it covers, both ends included.
func (g *GormGateway) BookedDates(ctx context.Context, cabinID uint) ([]time.Time, error) {
	var bookings []models.Booking
	if err := g.db.WithContext(ctx).
		Select("start_date", "end_date").
		Where("cabin_id = ?", cabinID).
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list booked dates: %w", err)
	}

	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, b := range bookings {
		for d := availability.Day(b.StartDate); !d.After(availability.Day(b.EndDate)); d = d.AddDate(0, 0, 1) {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (g *GormGateway) SelectBookings(ctx context.Context, filter Filter) ([]models.Booking, error) {
	var bookings []models.Booking
	q := g.db.WithContext(ctx).Order("start_date")
	if len(filter) > 0 {
		q = q.Where(map[string]any(filter))
	}
	if err := q.Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}
	return bookings, nil
}

// InsertBooking stores the booking unless another booking of the same cabin
// already covers one of its days. The check and the insert share a transaction
// that holds the cabin row with SELECT ... FOR UPDATE. sqlite has no row locks
// and serialises writers on the database lock instead.
func (g *GormGateway) InsertBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Concurrent inserts for the same cabin queue on this row lock.
		var cabin models.Cabin
		if err := lockCabin(tx, booking.CabinID).First(&cabin).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var overlapping int64
		if err := tx.Model(&models.Booking{}).
			Where("cabin_id = ? AND start_date <= ? AND end_date >= ?", booking.CabinID, booking.EndDate, booking.StartDate).
			Count(&overlapping).Error; err != nil {
			return err
		}
		if overlapping > 0 {
			return ErrOverlap
		}

		return tx.Create(booking).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrOverlap) {
			return nil, err
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return booking, nil
}

func lockCabin(tx *gorm.DB, id uint) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("id = ?", id)
}

func (g *GormGateway) UpdateBookings(ctx context.Context, filter Filter, patch Patch) (int64, error) {
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	res := g.db.WithContext(ctx).Model(&models.Booking{}).Where(map[string]any(filter)).Updates(map[string]any(patch))
	if res.Error != nil {
		return 0, fmt.Errorf("update bookings: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (g *GormGateway) DeleteBookings(ctx context.Context, filter Filter) (int64, error) {
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	res := g.db.WithContext(ctx).Where(map[string]any(filter)).Delete(&models.Booking{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete bookings: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (g *GormGateway) Guest(ctx context.Context, id uint) (*models.Guest, error) {
	var guest models.Guest
	if err := g.db.WithContext(ctx).First(&guest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}
	return &guest, nil
}

func (g *GormGateway) FindOrCreateGuest(ctx context.Context, email, fullName string) (*models.Guest, error) {
	var guest models.Guest
	err := g.db.WithContext(ctx).
		Where(models.Guest{Email: email}).
		Attrs(models.Guest{FullName: fullName}).
		FirstOrCreate(&guest).Error
	if err != nil {
		return nil, fmt.Errorf("find or create guest: %w", err)
	}
	return &guest, nil
}

func (g *GormGateway) UpdateGuests(ctx context.Context, filter Filter, patch Patch) (int64, error) {
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	res := g.db.WithContext(ctx).Model(&models.Guest{}).Where(map[string]any(filter)).Updates(map[string]any(patch))
	if res.Error != nil {
		return 0, fmt.Errorf("update guests: %w", res.Error)
	}
	return res.RowsAffected, nil
}
