package auth

import "context"

// Destination is the area of the application the driver should show.
type Destination string

const (
	MainApp  Destination = "main_app"
	AuthFlow Destination = "auth_flow"
)

// Navigator receives navigation signals. Navigate is called synchronously
// while the controller serialises session changes, so it may read Session
// or State but must not call operations that change the session.
type Navigator interface {
	Navigate(ctx context.Context, to Destination)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, to Destination)

func (f NavigatorFunc) Navigate(ctx context.Context, to Destination) {
	f(ctx, to)
}

type noopNavigator struct{}

func (noopNavigator) Navigate(context.Context, Destination) {}
