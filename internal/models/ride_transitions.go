package models

import "fmt"

// RideAction is something a party does to a ride. Every status change in
// the system goes through NextRideStatus; handlers never write a status
// directly.
type RideAction string

const (
	ActionAccept   RideAction = "accept"
	ActionDecline  RideAction = "decline"
	ActionStart    RideAction = "start"
	ActionComplete RideAction = "complete"
	ActionCancel   RideAction = "cancel"
)

// transitions maps (current status, action) to the next status. Actor
// role is checked separately in actionRoles.
var transitions = map[string]map[RideAction]string{
	RideStatusPending: {
		ActionAccept:  RideStatusAccepted,
		ActionDecline: RideStatusDeclined,
		ActionCancel:  RideStatusCancelled,
	},
	RideStatusAccepted: {
		ActionStart:  RideStatusInProgress,
		ActionCancel: RideStatusCancelled,
	},
	RideStatusInProgress: {
		ActionComplete: RideStatusCompleted,
		ActionCancel:   RideStatusCancelled,
	},
}

// actionRoles restricts who may perform each action. Cancel is open to
// both parties; accept/decline/start/complete are driver actions.
var actionRoles = map[RideAction]map[UserType]bool{
	ActionAccept:   {UserTypeDriver: true},
	ActionDecline:  {UserTypeDriver: true},
	ActionStart:    {UserTypeDriver: true},
	ActionComplete: {UserTypeDriver: true},
	ActionCancel:   {UserTypeDriver: true, UserTypeRider: true},
}

// NextRideStatus validates a transition and returns the new status.
// It is the single source of truth for the ride lifecycle:
//
//	pending     -> accepted | declined | cancelled
//	accepted    -> in_progress | cancelled
//	in_progress -> completed | cancelled
//
// completed, declined and cancelled are terminal.
func NextRideStatus(current string, action RideAction, actor UserType) (string, error) {
	roles, ok := actionRoles[action]
	if !ok {
		return "", fmt.Errorf("unknown ride action %q", action)
	}
	if !roles[actor] {
		return "", fmt.Errorf("%s may not %s a ride", actor, action)
	}
	next, ok := transitions[current][action]
	if !ok {
		if Terminal(current) {
			return "", fmt.Errorf("ride is already %s", current)
		}
		return "", fmt.Errorf("cannot %s a %s ride", action, current)
	}
	return next, nil
}

// ActionForStatus maps a requested target status to the action that
// produces it, for callers that PATCH a status instead of invoking an
// action endpoint.
func ActionForStatus(target string) (RideAction, error) {
	switch target {
	case RideStatusAccepted:
		return ActionAccept, nil
	case RideStatusDeclined:
		return ActionDecline, nil
	case RideStatusInProgress:
		return ActionStart, nil
	case RideStatusCompleted:
		return ActionComplete, nil
	case RideStatusCancelled:
		return ActionCancel, nil
	}
	return "", fmt.Errorf("no action produces status %q", target)
}
