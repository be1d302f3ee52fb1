package aiseed

import (
	"fmt"
	"strings"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
)

const systemPrompt = `You are a cycling route planner. You suggest real, bikeable points of interest
(parks, viewpoints, landmarks, cafes, bike trails) for a ride. Answer only with a JSON object of the form
{"waypoints":[{"lat":<number>,"lon":<number>,"name":"<string>","category":"<string>"}]}.`

type waypointGuide struct {
	maxKm   float64
	min     int
	max     int
	spacing string
}

// waypoint counts grow with the ride length.
var waypointGuides = []waypointGuide{
	{maxKm: 5, min: 4, max: 5, spacing: "0.5-1 kilometers apart"},
	{maxKm: 13, min: 5, max: 9, spacing: "1-2 kilometers apart"},
	{maxKm: 24, min: 7, max: 10, spacing: "2-3 kilometers apart"},
}

var longRideGuide = waypointGuide{min: 9, max: 14, spacing: "3-5 kilometers apart"}

func guideFor(targetKm float64) waypointGuide {
	for _, g := range waypointGuides {
		if targetKm < g.maxKm {
			return g
		}
	}
	return longRideGuide
}

func userPrompt(prefs datastructure.RoutePreferences) string {
	guide := guideFor(prefs.TargetDistanceKm)

	focus := make([]string, 0, 3)
	if prefs.PreferBikeLanes {
		focus = append(focus, "prioritizing bike lanes")
	}
	if prefs.AvoidHills {
		focus = append(focus, "avoiding hills")
	}
	if prefs.PreferHills {
		focus = append(focus, "with elevation focus")
	}
	if prefs.AvoidHighways {
		focus = append(focus, "avoiding high traffic roads")
	}
	focusText := "no specific preferences for bike lanes, traffic or hills"
	if len(focus) > 0 {
		focusText = "focused on " + strings.Join(focus, " and ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Plan a %s cycling route of about %.1f kilometers starting at coordinates %.6f, %.6f",
		shapeText(prefs.Shape), prefs.TargetDistanceKm, prefs.Start.Lat, prefs.Start.Lon)
	if prefs.HasEnd() {
		fmt.Fprintf(&sb, " and ending at coordinates %.6f, %.6f", prefs.End.Lat, prefs.End.Lon)
	}
	fmt.Fprintf(&sb, ", %s.\n", focusText)
	if prefs.Surface != "" && prefs.Surface != datastructure.SurfaceAny {
		fmt.Fprintf(&sb, "Prefer %s surfaces.\n", prefs.Surface)
	}
	fmt.Fprintf(&sb, "Suggest between %d and %d waypoints, %s, all within %.1f kilometers of the start.",
		guide.min, guide.max, guide.spacing, prefs.TargetDistanceKm/2)
	return sb.String()
}

func shapeText(shape datastructure.RouteShape) string {
	switch shape {
	case datastructure.ShapeOutAndBack:
		return "out-and-back"
	case datastructure.ShapeFigure8:
		return "figure-8"
	default:
		return "loop"
	}
}
