package router

import (
	"testing"

	"github.com/glowempire/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	serum := models.DefaultCatalog()[1]

	tests := []struct {
		name    string
		current Screen
		event   Event
		authed  bool
		want    Screen
		wantErr error
	}{
		{"enter from welcome", Welcome{}, Enter{}, false, Shop{}, nil},
		{"enter elsewhere", Cart{}, Enter{}, false, nil, ErrNoTransition},
		{"back from cart", Cart{}, Back{}, false, Shop{}, nil},
		{"back from details", Details{Product: serum}, Back{}, false, Shop{}, nil},
		{"back from admin", Admin{}, Back{}, true, Shop{}, nil},
		{"back from shop", Shop{}, Back{}, false, nil, ErrNoTransition},
		{"back from welcome", Welcome{}, Back{}, false, nil, ErrNoTransition},
		{"open product", Shop{}, OpenProduct{Product: serum}, false, Details{Product: serum}, nil},
		{"open product from favorites", Favorites{}, OpenProduct{Product: serum}, false, Details{Product: serum}, nil},
		{"goto cart", Shop{}, Goto{Target: NameCart}, false, Cart{}, nil},
		{"goto chat", Checkout{}, Goto{Target: NameChat}, false, Chat{}, nil},
		{"goto orders", Shop{}, Goto{Target: NameOrders}, false, Orders{}, nil},
		{"goto admin signed out", Shop{}, Goto{Target: NameAdmin}, false, AdminLogin{}, nil},
		{"goto admin signed in", Shop{}, Goto{Target: NameAdmin}, true, Admin{}, nil},
		{"goto admin login signed in", Shop{}, Goto{Target: NameAdminLogin}, true, Admin{}, nil},
		{"goto details", Shop{}, Goto{Target: NameDetails}, false, nil, ErrNoTransition},
		{"goto nowhere", Shop{}, Goto{Target: "basement"}, false, nil, ErrUnknownScreen},
		{"checkout from cart", Cart{}, StartCheckout{}, false, Checkout{}, nil},
		{"checkout from shop", Shop{}, StartCheckout{}, false, nil, ErrNoTransition},
		{"signed in on login", AdminLogin{}, SignedIn{}, true, Admin{}, nil},
		{"signed in elsewhere", Cart{}, SignedIn{}, true, Cart{}, nil},
		{"signed out on admin", Admin{}, SignedOut{}, false, Shop{}, nil},
		{"signed out elsewhere", Orders{}, SignedOut{}, false, Orders{}, nil},
		{"nil current is welcome", nil, Enter{}, false, Shop{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.current, tt.event, tt.authed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNoTransitionKeepsScreen(t *testing.T) {
	got, err := Next(Shop{}, Back{}, false)
	assert.ErrorIs(t, err, ErrNoTransition)
	assert.Equal(t, Shop{}, got)
}

func TestParseName(t *testing.T) {
	for _, s := range []string{"welcome", "shop", "details", "cart", "checkout", "chat", "orders", "favorites", "admin-login", "admin"} {
		n, err := ParseName(s)
		require.NoError(t, err)
		assert.Equal(t, Name(s), n)
	}

	_, err := ParseName("Shop")
	assert.ErrorIs(t, err, ErrUnknownScreen)
}

func TestScreenNames(t *testing.T) {
	assert.Equal(t, NameDetails, Details{}.Name())
	assert.Equal(t, NameAdminLogin, AdminLogin{}.Name())
	assert.Equal(t, NameFavorites, Favorites{}.Name())
}
