// Package nav holds the screen-visibility rules for the adaptive navigation
// chrome: pure functions of the active route and layout type, evaluated on
// every navigation change.
package nav

// Route identifies a screen in the app.
type Route string

const (
	RouteLogin       Route = "login"
	RouteRegister    Route = "register"
	RouteHome        Route = "home"
	RouteCalendar    Route = "calendar"
	RouteMap         Route = "map"
	RouteProfile     Route = "profile"
	RouteEntryDetail Route = "entry_detail"
	RouteAddEntry    Route = "add_entry"
	RouteEditEntry   Route = "edit_entry"
	RouteEditProfile Route = "edit_profile"
)

// Layout is the adaptive navigation layout in effect for the window size.
type Layout int

const (
	LayoutBottomBar Layout = iota
	LayoutNavRail
	LayoutNavDrawer
)

// authRoutes always hide navigation chrome, under every layout.
var authRoutes = map[Route]bool{
	RouteLogin:    true,
	RouteRegister: true,
}

// fullScreenRoutes render edge-to-edge: they hide the top bar everywhere,
// and under the bottom-bar layout they hide the navigation chrome too. The
// rail and drawer layouts keep their chrome on these screens.
var fullScreenRoutes = map[Route]bool{
	RouteEntryDetail: true,
	RouteAddEntry:    true,
	RouteEditEntry:   true,
	RouteEditProfile: true,
}

// ShowNavigation reports whether the navigation chrome (bottom bar, rail or
// drawer) is visible on the given route under the given layout.
func ShowNavigation(route Route, layout Layout) bool {
	if authRoutes[route] {
		return false
	}
	if layout == LayoutBottomBar && fullScreenRoutes[route] {
		return false
	}
	return true
}

// ShowTopBar reports whether the top bar is visible. Top bar visibility does
// not depend on the layout type; the parameter is kept so both rules share
// the (route, layout) contract.
func ShowTopBar(route Route, _ Layout) bool {
	return !authRoutes[route] && !fullScreenRoutes[route]
}
