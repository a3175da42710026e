package models

import "testing"

func TestNextRideStatus(t *testing.T) {
	cases := []struct {
		name    string
		current string
		action  RideAction
		actor   UserType
		want    string
		wantErr bool
	}{
		{"driver accepts pending", RideStatusPending, ActionAccept, UserTypeDriver, RideStatusAccepted, false},
		{"driver declines pending", RideStatusPending, ActionDecline, UserTypeDriver, RideStatusDeclined, false},
		{"rider cancels pending", RideStatusPending, ActionCancel, UserTypeRider, RideStatusCancelled, false},
		{"driver starts accepted", RideStatusAccepted, ActionStart, UserTypeDriver, RideStatusInProgress, false},
		{"driver cancels accepted", RideStatusAccepted, ActionCancel, UserTypeDriver, RideStatusCancelled, false},
		{"driver completes in_progress", RideStatusInProgress, ActionComplete, UserTypeDriver, RideStatusCompleted, false},
		{"rider cancels in_progress", RideStatusInProgress, ActionCancel, UserTypeRider, RideStatusCancelled, false},

		{"rider may not accept", RideStatusPending, ActionAccept, UserTypeRider, "", true},
		{"rider may not start", RideStatusAccepted, ActionStart, UserTypeRider, "", true},
		{"rider may not complete", RideStatusInProgress, ActionComplete, UserTypeRider, "", true},
		{"cannot start pending", RideStatusPending, ActionStart, UserTypeDriver, "", true},
		{"cannot accept accepted", RideStatusAccepted, ActionAccept, UserTypeDriver, "", true},
		{"cannot complete accepted", RideStatusAccepted, ActionComplete, UserTypeDriver, "", true},
		{"cannot decline in_progress", RideStatusInProgress, ActionDecline, UserTypeDriver, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextRideStatus(tc.current, tc.action, tc.actor)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestTerminalStatesAdmitNothing(t *testing.T) {
	terminals := []string{RideStatusCompleted, RideStatusDeclined, RideStatusCancelled}
	actions := []RideAction{ActionAccept, ActionDecline, ActionStart, ActionComplete, ActionCancel}
	actors := []UserType{UserTypeRider, UserTypeDriver}

	for _, status := range terminals {
		if !Terminal(status) {
			t.Fatalf("%s should be terminal", status)
		}
		for _, action := range actions {
			for _, actor := range actors {
				if next, err := NextRideStatus(status, action, actor); err == nil {
					t.Fatalf("%s ride allowed %s by %s -> %s", status, action, actor, next)
				}
			}
		}
	}
}

func TestActionForStatus(t *testing.T) {
	if _, err := ActionForStatus(RideStatusPending); err == nil {
		t.Fatal("no action should produce pending")
	}
	action, err := ActionForStatus(RideStatusAccepted)
	if err != nil || action != ActionAccept {
		t.Fatalf("expected accept, got %v (%v)", action, err)
	}
}

func TestConversationIDOrderIndependent(t *testing.T) {
	if ConversationID(7, 3) != ConversationID(3, 7) {
		t.Fatal("conversation id must not depend on argument order")
	}
	if ConversationID(3, 7) != "3_7" {
		t.Fatalf("expected 3_7, got %s", ConversationID(3, 7))
	}
}
