// Package router decides which storefront screen follows a user action.
// Screens and events are closed sets of types; Next is a pure function over
// them.
package router

import (
	"errors"
	"fmt"

	"github.com/glowempire/storefront/internal/models"
)

var (
	// ErrNoTransition is returned when an event has no meaning on a screen
	ErrNoTransition = errors.New("no transition")
	// ErrUnknownScreen is returned for a screen name nobody defined
	ErrUnknownScreen = errors.New("unknown screen")
)

// Name identifies a screen
type Name string

// Name constants
const (
	NameWelcome    Name = "welcome"
	NameShop       Name = "shop"
	NameDetails    Name = "details"
	NameCart       Name = "cart"
	NameCheckout   Name = "checkout"
	NameChat       Name = "chat"
	NameOrders     Name = "orders"
	NameFavorites  Name = "favorites"
	NameAdminLogin Name = "admin-login"
	NameAdmin      Name = "admin"
)

// ParseName validates a screen name
func ParseName(s string) (Name, error) {
	switch n := Name(s); n {
	case NameWelcome, NameShop, NameDetails, NameCart, NameCheckout,
		NameChat, NameOrders, NameFavorites, NameAdminLogin, NameAdmin:
		return n, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScreen, s)
}

// Screen is one of the storefront screens
type Screen interface {
	Name() Name
	screen()
}

type (
	Welcome    struct{}
	Shop       struct{}
	Cart       struct{}
	Checkout   struct{}
	Chat       struct{}
	Orders     struct{}
	Favorites  struct{}
	AdminLogin struct{}
	Admin      struct{}
)

// Details shows one product
type Details struct {
	Product models.Product
}

func (Welcome) Name() Name    { return NameWelcome }
func (Shop) Name() Name       { return NameShop }
func (Details) Name() Name    { return NameDetails }
func (Cart) Name() Name       { return NameCart }
func (Checkout) Name() Name   { return NameCheckout }
func (Chat) Name() Name       { return NameChat }
func (Orders) Name() Name     { return NameOrders }
func (Favorites) Name() Name  { return NameFavorites }
func (AdminLogin) Name() Name { return NameAdminLogin }
func (Admin) Name() Name      { return NameAdmin }

func (Welcome) screen()    {}
func (Shop) screen()       {}
func (Details) screen()    {}
func (Cart) screen()       {}
func (Checkout) screen()   {}
func (Chat) screen()       {}
func (Orders) screen()     {}
func (Favorites) screen()  {}
func (AdminLogin) screen() {}
func (Admin) screen()      {}

// Event is a user or session action that may change the screen
type Event interface {
	event()
}

type (
	// Enter leaves the welcome screen
	Enter struct{}
	// Back returns to the shop
	Back struct{}
	// OpenProduct shows a product's details
	OpenProduct struct{ Product models.Product }
	// Goto jumps to a named screen from the header or footer
	Goto struct{ Target Name }
	// StartCheckout moves from the cart to the checkout form
	StartCheckout struct{}
	SignedIn      struct{}
	SignedOut     struct{}
)

func (Enter) event()         {}
func (Back) event()          {}
func (OpenProduct) event()   {}
func (Goto) event()          {}
func (StartCheckout) event() {}
func (SignedIn) event()      {}
func (SignedOut) event()     {}

// Next returns the screen that follows ev on current. authed reports
// whether an admin session is live.
func Next(current Screen, ev Event, authed bool) (Screen, error) {
	if current == nil {
		current = Welcome{}
	}

	switch e := ev.(type) {
	case Enter:
		if _, ok := current.(Welcome); ok {
			return Shop{}, nil
		}

	case Back:
		switch current.(type) {
		case Welcome, Shop:
		default:
			return Shop{}, nil
		}

	case OpenProduct:
		return Details{Product: e.Product}, nil

	case Goto:
		return gotoScreen(e.Target, authed)

	case StartCheckout:
		if _, ok := current.(Cart); ok {
			return Checkout{}, nil
		}

	case SignedIn:
		if _, ok := current.(AdminLogin); ok {
			return Admin{}, nil
		}
		return current, nil

	case SignedOut:
		if _, ok := current.(Admin); ok {
			return Shop{}, nil
		}
		return current, nil
	}

	return current, fmt.Errorf("%w: %T on %s", ErrNoTransition, ev, current.Name())
}

func gotoScreen(target Name, authed bool) (Screen, error) {
	switch target {
	case NameWelcome:
		return Welcome{}, nil
	case NameShop:
		return Shop{}, nil
	case NameCart:
		return Cart{}, nil
	case NameCheckout:
		return Checkout{}, nil
	case NameChat:
		return Chat{}, nil
	case NameOrders:
		return Orders{}, nil
	case NameFavorites:
		return Favorites{}, nil
	case NameAdmin, NameAdminLogin:
		if authed {
			return Admin{}, nil
		}
		return AdminLogin{}, nil
	case NameDetails:
		return nil, fmt.Errorf("%w: details needs a product", ErrNoTransition)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScreen, target)
}
