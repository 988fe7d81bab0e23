package auth

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/biztrack/pkg/logger"
	"github.com/dmitrymomot/biztrack/pkg/statemachine"
)

// State is the lifecycle state of the controller.
type State string

const (
	Uninitialized   State = "uninitialized"
	Restoring       State = "restoring"
	Authenticated   State = "authenticated"
	Unauthenticated State = "unauthenticated"
)

// Event names what caused a state change.
type Event string

const (
	EventStart         Event = "start"
	EventRestored      Event = "restored"
	EventRestoreFailed Event = "restore_failed"
	EventLogin         Event = "login"
	EventLogout        Event = "logout"
	EventExpired       Event = "expired"
	EventInvalidated   Event = "invalidated"
)

type machine = statemachine.Machine[State, Event]

// newMachine builds the lifecycle table. Ending a session is not listed:
// it is always a forced move to Unauthenticated.
func newMachine(log *slog.Logger, nav Navigator) *machine {
	return statemachine.MustNew(Uninitialized,
		statemachine.WithTransition[State, Event](Uninitialized, Restoring, EventStart),
		statemachine.WithTransition[State, Event](Restoring, Authenticated, EventRestored),
		statemachine.WithTransition[State, Event](Uninitialized, Authenticated, EventLogin),
		statemachine.WithTransition[State, Event](Restoring, Authenticated, EventLogin),
		statemachine.WithTransition[State, Event](Unauthenticated, Authenticated, EventLogin),
		statemachine.WithTransition[State, Event](Authenticated, Authenticated, EventLogin),
		statemachine.WithObserver(func(ctx context.Context, from, to State, ev Event) {
			log.InfoContext(ctx, "session state changed",
				logger.Transition(string(from), string(to)),
				logger.Event(string(ev)),
			)
			switch to {
			case Authenticated:
				nav.Navigate(ctx, MainApp)
			case Unauthenticated:
				nav.Navigate(ctx, AuthFlow)
			}
		}),
	)
}
