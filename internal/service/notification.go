package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ride/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationDriverAssigned NotificationType = "DRIVER_ASSIGNED"
	NotificationTripAccepted   NotificationType = "TRIP_ACCEPTED"
	NotificationTripStarted    NotificationType = "TRIP_STARTED"
	NotificationTripPaused     NotificationType = "TRIP_PAUSED"
	NotificationTripResumed    NotificationType = "TRIP_RESUMED"
	NotificationTripEnded      NotificationType = "TRIP_ENDED"
	NotificationPaymentSuccess NotificationType = "PAYMENT_COMPLETED"
	NotificationPaymentFailed  NotificationType = "PAYMENT_FAILED"
	NotificationRideCancelled  NotificationType = "RIDE_CANCELLED"
	NotificationRideExpired    NotificationType = "RIDE_EXPIRED"
)

// Notification represents a notification to be sent to a rider or driver.
type Notification struct {
	Type        NotificationType
	RecipientID string // rider or driver ID
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService delivers user-facing notifications, distinct from the
// live-event bus: the bus fans out to subscribers in general, while this
// addresses a specific rider or driver. In a real system this would front
// FCM/APNS/Twilio; here it is a logging stub.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyDriverAssigned notifies the rider that a driver has been assigned.
func (s *NotificationService) NotifyDriverAssigned(ctx context.Context, ride *domain.Ride, driver *domain.Driver) error {
	return s.send(ctx, Notification{
		Type:        NotificationDriverAssigned,
		RecipientID: ride.RiderID,
		Title:       "Driver Assigned",
		Message:     fmt.Sprintf("Driver %s has been assigned to your ride", driver.Name),
		Data:        map[string]interface{}{"ride_id": ride.ID, "driver_id": driver.ID},
		CreatedAt:   time.Now(),
	})
}

// NotifyTripStarted notifies the rider that the trip has started.
func (s *NotificationService) NotifyTripStarted(ctx context.Context, trip *domain.Trip, riderID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationTripStarted,
		RecipientID: riderID,
		Title:       "Trip Started",
		Message:     "Your trip has started. Enjoy your ride!",
		Data:        map[string]interface{}{"trip_id": trip.ID, "started_at": trip.StartedAt},
		CreatedAt:   time.Now(),
	})
}

// NotifyTripPaused notifies the rider that the trip has been paused.
func (s *NotificationService) NotifyTripPaused(ctx context.Context, trip *domain.Trip, riderID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationTripPaused,
		RecipientID: riderID,
		Title:       "Trip Paused",
		Message:     "Your trip has been paused by the driver.",
		Data:        map[string]interface{}{"trip_id": trip.ID},
		CreatedAt:   time.Now(),
	})
}

// NotifyTripResumed notifies the rider that the trip has resumed.
func (s *NotificationService) NotifyTripResumed(ctx context.Context, trip *domain.Trip, riderID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationTripResumed,
		RecipientID: riderID,
		Title:       "Trip Resumed",
		Message:     "Your trip has resumed.",
		Data:        map[string]interface{}{"trip_id": trip.ID},
		CreatedAt:   time.Now(),
	})
}

// NotifyTripEnded notifies the rider that the trip has ended.
func (s *NotificationService) NotifyTripEnded(ctx context.Context, trip *domain.Trip, riderID string, totalFare float64) error {
	return s.send(ctx, Notification{
		Type:        NotificationTripEnded,
		RecipientID: riderID,
		Title:       "Trip Completed",
		Message:     fmt.Sprintf("Your trip has ended. Total fare: %.2f", totalFare),
		Data:        map[string]interface{}{"trip_id": trip.ID, "total_fare": totalFare},
		CreatedAt:   time.Now(),
	})
}

// NotifyPaymentCompleted notifies the rider of a completed payment.
func (s *NotificationService) NotifyPaymentCompleted(ctx context.Context, payment *domain.Payment, riderID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationPaymentSuccess,
		RecipientID: riderID,
		Title:       "Payment Successful",
		Message:     fmt.Sprintf("Payment of %.2f was successful", payment.Amount),
		Data:        map[string]interface{}{"payment_id": payment.ID, "amount": payment.Amount},
		CreatedAt:   time.Now(),
	})
}

// NotifyPaymentFailed notifies the rider of a failed payment.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, payment *domain.Payment, riderID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationPaymentFailed,
		RecipientID: riderID,
		Title:       "Payment Failed",
		Message:     fmt.Sprintf("Payment of %.2f failed: %s", payment.Amount, payment.FailureReason),
		Data:        map[string]interface{}{"payment_id": payment.ID, "amount": payment.Amount},
		CreatedAt:   time.Now(),
	})
}

// NotifyRideCancelled notifies the other party about a ride cancellation.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride, cancelledBy, reason string) error {
	var recipientID, message string
	if cancelledBy == ride.RiderID {
		recipientID = ride.AssignedDriverID
		message = "The rider has cancelled the ride"
	} else {
		recipientID = ride.RiderID
		message = "The driver has cancelled the ride"
	}
	if recipientID == "" {
		return nil
	}
	return s.send(ctx, Notification{
		Type:        NotificationRideCancelled,
		RecipientID: recipientID,
		Title:       "Ride Cancelled",
		Message:     message,
		Data:        map[string]interface{}{"ride_id": ride.ID, "reason": reason},
		CreatedAt:   time.Now(),
	})
}

// NotifyRideExpired notifies the rider that no driver could be matched in time.
func (s *NotificationService) NotifyRideExpired(ctx context.Context, ride *domain.Ride) error {
	return s.send(ctx, Notification{
		Type:        NotificationRideExpired,
		RecipientID: ride.RiderID,
		Title:       "No Drivers Available",
		Message:     "We couldn't find a driver for your ride request.",
		Data:        map[string]interface{}{"ride_id": ride.ID},
		CreatedAt:   time.Now(),
	})
}

func (s *NotificationService) send(ctx context.Context, n Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s", n.Type, n.RecipientID, n.Title, n.Message)
	return nil
}
