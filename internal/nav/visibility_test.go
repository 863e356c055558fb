package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allLayouts = []Layout{LayoutBottomBar, LayoutNavRail, LayoutNavDrawer}

func TestAuthRoutesHideAllChrome(t *testing.T) {
	for _, route := range []Route{RouteLogin, RouteRegister} {
		for _, layout := range allLayouts {
			assert.False(t, ShowNavigation(route, layout), "nav on %s layout %d", route, layout)
			assert.False(t, ShowTopBar(route, layout), "top bar on %s layout %d", route, layout)
		}
	}
}

func TestTopLevelRoutesShowAllChrome(t *testing.T) {
	for _, route := range []Route{RouteHome, RouteCalendar, RouteMap, RouteProfile} {
		for _, layout := range allLayouts {
			assert.True(t, ShowNavigation(route, layout), "nav on %s layout %d", route, layout)
			assert.True(t, ShowTopBar(route, layout), "top bar on %s layout %d", route, layout)
		}
	}
}

func TestFullScreenRoutes(t *testing.T) {
	fullScreen := []Route{RouteEntryDetail, RouteAddEntry, RouteEditEntry, RouteEditProfile}

	for _, route := range fullScreen {
		// Bottom bar collapses; rail and drawer stay put.
		assert.False(t, ShowNavigation(route, LayoutBottomBar), "bottom bar on %s", route)
		assert.True(t, ShowNavigation(route, LayoutNavRail), "rail on %s", route)
		assert.True(t, ShowNavigation(route, LayoutNavDrawer), "drawer on %s", route)

		// Top bar hides regardless of layout.
		for _, layout := range allLayouts {
			assert.False(t, ShowTopBar(route, layout), "top bar on %s layout %d", route, layout)
		}
	}
}
