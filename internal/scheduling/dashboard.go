package scheduling

import (
	"context"
	"fmt"

	"github.com/sakif/gobarber/internal/model"
	"github.com/sakif/gobarber/internal/navigation"
)

// Dashboard is the landing screen: a greeting and the provider list, from
// which the user opens the create-appointment flow.
type Dashboard struct {
	gw  Gateway
	nav navigation.Navigator
}

// NewDashboard returns a Dashboard.
func NewDashboard(gw Gateway, nav navigation.Navigator) *Dashboard {
	return &Dashboard{gw: gw, nav: nav}
}

// Providers fetches the provider list. Errors are returned, not hidden.
func (d *Dashboard) Providers(ctx context.Context) ([]model.Provider, error) {
	providers, err := d.gw.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduling: dashboard providers: %w", err)
	}
	return providers, nil
}

// Greeting is the header text for identity.
func (d *Dashboard) Greeting(identity model.Identity) string {
	return "Bem vindo, " + identity.Name
}

// OpenProvider navigates to the create-appointment flow for providerID.
func (d *Dashboard) OpenProvider(providerID string) {
	d.nav.Navigate(navigation.RouteCreateAppointment, navigation.Params{"provider_id": providerID})
}

// OpenProfile navigates to the profile screen.
func (d *Dashboard) OpenProfile() {
	d.nav.Navigate(navigation.RouteProfile, nil)
}
