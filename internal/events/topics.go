package events

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// PaymentBookingPaid is published by the payment service once a booking is paid for.
const PaymentBookingPaid = "payment.booking_paid"

// ServiceSource identifies this service as the origin of published events.
const ServiceSource = "service-booking"

// BookingPaidEvent is the payload of a PaymentBookingPaid event.
type BookingPaidEvent struct {
	BookingID int64   `json:"booking_id"`
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
}
