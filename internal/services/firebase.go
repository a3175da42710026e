package services

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/goldlinerides/goldline-backend/internal/models"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

var (
	// FirebaseApp is the Firebase app instance
	FirebaseApp *firebase.App
	// MessagingClient is the Firebase Cloud Messaging client
	MessagingClient *messaging.Client
)

// InitFirebase initializes Firebase Admin SDK
func InitFirebase() error {
	ctx := context.Background()

	// Check if Firebase is configured
	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	if serviceAccountPath == "" {
		log.Println("Warning: FIREBASE_SERVICE_ACCOUNT_PATH not set. Push notifications will be disabled.")
		return nil
	}

	// Initialize Firebase app
	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing firebase app: %v", err)
	}

	// Initialize messaging client
	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting messaging client: %v", err)
	}

	FirebaseApp = app
	MessagingClient = client

	log.Println("Firebase Cloud Messaging initialized successfully")
	return nil
}

// NotificationPayload represents the notification data
type NotificationPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// SendNotificationToUser pushes to every device token registered for a
// user. Tokens FCM reports as dead are pruned so the table does not
// accumulate uninstalls.
func SendNotificationToUser(ctx context.Context, db *gorm.DB, userID uint, payload NotificationPayload) {
	if MessagingClient == nil {
		return
	}

	var tokens []models.DeviceToken
	if err := db.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		log.Printf("Error loading device tokens for user %d: %v", userID, err)
		return
	}

	for _, t := range tokens {
		message := &messaging.Message{
			Notification: &messaging.Notification{
				Title: payload.Title,
				Body:  payload.Body,
			},
			Data:  payload.Data,
			Token: t.Token,
		}

		if _, err := MessagingClient.Send(ctx, message); err != nil {
			log.Printf("Error sending notification to user %d: %v", userID, err)
			if messaging.IsUnregistered(err) {
				db.Delete(&models.DeviceToken{}, t.ID)
			}
		}
	}
}

// NotifyRideStatus tells a party their ride changed state.
func NotifyRideStatus(ctx context.Context, db *gorm.DB, userID uint, ride *models.Ride) {
	titles := map[string]string{
		models.RideStatusAccepted:   "Ride accepted",
		models.RideStatusDeclined:   "Ride declined",
		models.RideStatusInProgress: "Your ride has started",
		models.RideStatusCompleted:  "Ride completed",
		models.RideStatusCancelled:  "Ride cancelled",
	}
	title, ok := titles[ride.Status]
	if !ok {
		return
	}

	SendNotificationToUser(ctx, db, userID, NotificationPayload{
		Title: title,
		Body:  fmt.Sprintf("%s to %s", ride.Pickup, ride.Dropoff),
		Data: map[string]string{
			"rideId": fmt.Sprintf("%d", ride.ID),
			"status": ride.Status,
		},
	})
}

// NotifyNewMessage tells the receiver a chat message arrived.
func NotifyNewMessage(ctx context.Context, db *gorm.DB, msg models.Message) {
	sender := msg.SenderName
	if sender == "" {
		sender = "New message"
	}

	SendNotificationToUser(ctx, db, msg.ReceiverID, NotificationPayload{
		Title: sender,
		Body:  msg.Content,
		Data: map[string]string{
			"rideId":    fmt.Sprintf("%d", msg.RideID),
			"messageId": fmt.Sprintf("%d", msg.ID),
		},
	})
}
