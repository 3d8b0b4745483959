package model

import (
	"bytes"
	"encoding/json"
)

const BookingStatusConfirmed = "confirmed"

// UserIdentity is the owner reference embedded in bookings.
type UserIdentity struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Place is an airport or city. The backend sends either a bare string or an
// object carrying at least a city.
type Place struct {
	Code    string `json:"code,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

func (p *Place) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Place{City: s}
		return nil
	}
	type plain Place
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Place(v)
	return nil
}

func (p Place) String() string {
	if p.City != "" {
		return p.City
	}
	return p.Code
}

type Flight struct {
	Airline      string `json:"airline"`
	FlightNumber string `json:"flightNumber"`
	Aircraft     string `json:"aircraft,omitempty"`
	Origin       Place  `json:"origin"`
	Destination  Place  `json:"destination"`
	FlightDate   string `json:"flightDate"`
}

type Hotel struct {
	Name       string `json:"name"`
	StarRating int    `json:"starRating"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

// FlightBooking is a read-only projection of a flight reservation.
// User is nil when the backend did not embed an owner.
type FlightBooking struct {
	ID               string        `json:"_id"`
	BookingReference string        `json:"bookingReference"`
	TotalPrice       float64       `json:"totalPrice"`
	Currency         string        `json:"currency"`
	Status           string        `json:"status"`
	PassengerName    string        `json:"passengerName"`
	SeatNumber       string        `json:"seatNumber"`
	Flight           *Flight       `json:"flight,omitempty"`
	User             *UserIdentity `json:"user,omitempty"`
}

// HotelBooking is a read-only projection of a hotel reservation.
type HotelBooking struct {
	ID               string        `json:"_id"`
	BookingReference string        `json:"bookingReference"`
	TotalPrice       float64       `json:"totalPrice"`
	Currency         string        `json:"currency"`
	Status           string        `json:"status"`
	GuestName        string        `json:"guestName"`
	RoomType         string        `json:"roomType"`
	CheckInDate      string        `json:"checkInDate"`
	CheckOutDate     string        `json:"checkOutDate"`
	NumberOfNights   int           `json:"numberOfNights"`
	Hotel            *Hotel        `json:"hotel,omitempty"`
	User             *UserIdentity `json:"user,omitempty"`
}

// AllBookings is the payload of GET /bookings/all.
type AllBookings struct {
	Flights []FlightBooking `json:"flights"`
	Hotels  []HotelBooking  `json:"hotels"`
}

// UserBookings is the payload of GET /bookings/user?email=.
type UserBookings struct {
	User           *UserIdentity   `json:"user,omitempty"`
	FlightBookings []FlightBooking `json:"flightBookings"`
	HotelBookings  []HotelBooking  `json:"hotelBookings"`
}

func (u *UserBookings) Empty() bool {
	return u == nil || (len(u.FlightBookings) == 0 && len(u.HotelBookings) == 0)
}

// UserAggregate groups the bookings owned by one user. It is derived on the
// client and never stored.
type UserAggregate struct {
	User    UserIdentity    `json:"user"`
	Flights []FlightBooking `json:"flights"`
	Hotels  []HotelBooking  `json:"hotels"`
}

type AggregateSummary struct {
	BookingCount int     `json:"booking_count"`
	TotalValue   float64 `json:"total_value"`
}
