package adapter

import (
	"context"

	"travel-planner-client/internal/domain/model"
)

// BookingsAPI is the port for the read-only bookings endpoints.
type BookingsAPI interface {
	AllBookings(ctx context.Context) (*model.AllBookings, error)
	FlightBookings(ctx context.Context) ([]model.FlightBooking, error)
	HotelBookings(ctx context.Context) ([]model.HotelBooking, error)
	UserBookings(ctx context.Context, email string) (*model.UserBookings, error)
}
