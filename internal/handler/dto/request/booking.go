package request

import (
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	RoomID      uuid.UUID `json:"room_id" binding:"required"`
	PropertyID  uuid.UUID `json:"property_id" binding:"required"`
	CheckIn     string    `json:"check_in" binding:"required,datetime=2006-01-02"`
	CheckOut    string    `json:"check_out" binding:"required,datetime=2006-01-02"`
	Adults      int       `json:"adults" binding:"required,min=1"`
	Children    int       `json:"children" binding:"min=0"`
	GuestName   string    `json:"guest_name" binding:"required,max=120"`
	GuestEmail  string    `json:"guest_email" binding:"required,email"`
	TotalAmount int64     `json:"total_amount" binding:"required,min=1"`
	Currency    string    `json:"currency" binding:"required,len=3"`
}

func (r CreateBookingRequest) CheckInDate() (time.Time, error) {
	return time.Parse("2006-01-02", r.CheckIn)
}

func (r CreateBookingRequest) CheckOutDate() (time.Time, error) {
	return time.Parse("2006-01-02", r.CheckOut)
}
