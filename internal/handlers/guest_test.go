package handlers

import (
	"strings"
	"testing"

	"github.com/goldlinerides/goldline-backend/internal/models"
)

func TestBuildGuestBooking(t *testing.T) {
	input := GuestRideInput{
		Name:       "Jane",
		Phone:      "555-1234",
		Pickup:     "123 Main",
		Dropoff:    "456 Oak",
		LocationID: "pittsburgh",
		DriverID:   1,
	}
	driver := models.User{
		ID:       1,
		Name:     "Marcus",
		UserType: string(models.UserTypeDriver),
	}

	ride, intro := buildGuestBooking(input, &driver)

	if ride.Status != models.RideStatusPending {
		t.Fatalf("guest bookings must start pending, got %q", ride.Status)
	}
	if ride.RiderID != nil {
		t.Fatal("guest rides have no rider account")
	}
	if ride.CustomerName != "Jane" || ride.Phone != "555-1234" {
		t.Fatalf("customer contact not captured: %+v", ride)
	}
	if ride.LocationID != "pittsburgh" || ride.Pickup != "123 Main" || ride.Dropoff != "456 Oak" {
		t.Fatalf("trip fields not captured: %+v", ride)
	}
	if ride.DriverSnapshot.Name != "Marcus" {
		t.Fatal("driver display snapshot must be captured at creation")
	}
	if ride.TrackingCode == "" {
		t.Fatal("guest rides need a tracking code for confirmation lookup")
	}

	if intro.ReceiverID != 1 {
		t.Fatalf("intro message must address the chosen driver, got %d", intro.ReceiverID)
	}
	if intro.SenderID != nil {
		t.Fatal("intro message comes from the unauthenticated submission context")
	}
	if intro.SenderName != "Jane" {
		t.Fatalf("intro message should carry the guest name, got %q", intro.SenderName)
	}
	if !strings.Contains(intro.Content, "123 Main") || !strings.Contains(intro.Content, "456 Oak") {
		t.Fatalf("intro message should mention the trip: %q", intro.Content)
	}
}

func TestBuildGuestBookingUniqueTrackingCodes(t *testing.T) {
	input := GuestRideInput{Name: "Jane", Phone: "555", Pickup: "a", Dropoff: "b", LocationID: "x", DriverID: 1}
	driver := models.User{ID: 1, UserType: string(models.UserTypeDriver)}

	a, _ := buildGuestBooking(input, &driver)
	b, _ := buildGuestBooking(input, &driver)
	if a.TrackingCode == b.TrackingCode {
		t.Fatal("tracking codes must be unique per booking")
	}
}
