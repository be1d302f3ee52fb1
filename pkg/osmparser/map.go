package osmparser

import (
	"strconv"
	"strings"

	"github.com/k0kubun/go-ansi"
	"github.com/paulmach/osm"
	"github.com/schollz/progressbar/v3"
)

type NodeType int

const (
	END_NODE NodeType = iota
	BETWEEN_NODE
	JUNCTION_NODE
)

var (
	// highways a bicycle can never use, same exclusions as an OSM "bike" network.
	skipHighway = map[string]struct{}{
		"abandoned":              {},
		"bus_guideway":           {},
		"construction":           {},
		"corridor":               {},
		"elevator":               {},
		"escalator":              {},
		"footway":                {},
		"motorway":               {},
		"motorway_link":          {},
		"no":                     {},
		"planned":                {},
		"platform":               {},
		"proposed":               {},
		"raceway":                {},
		"steps":                  {},
		"bus_stop":               {},
		"crossing":               {},
		"emergency_access_point": {},
		"street_lamp":            {},
		"traffic_signals":        {},
	}

	highwayClasses = map[string]struct{}{
		"trunk":      {},
		"trunk_link": {},
	}

	restricted = map[string]struct{}{
		"no":       {},
		"private":  {},
		"military": {},
	}
)

func acceptOsmWay(way *osm.Way, avoidHighways bool) bool {
	highway := way.Tags.Find("highway")
	if highway == "" {
		return false
	}
	if _, ok := skipHighway[highway]; ok {
		return false
	}
	if _, ok := highwayClasses[highway]; ok && avoidHighways {
		return false
	}
	if way.Tags.Find("area") == "yes" {
		return false
	}
	if _, ok := restricted[way.Tags.Find("bicycle")]; ok {
		return false
	}
	if _, ok := restricted[way.Tags.Find("access")]; ok && way.Tags.Find("bicycle") == "" {
		return false
	}
	if way.Tags.Find("service") == "private" {
		return false
	}
	return true
}

type wayDirection struct {
	forward  bool
	backward bool
}

func wayDirectionOf(way *osm.Way) wayDirection {
	if way.Tags.Find("oneway:bicycle") == "no" || way.Tags.Find("cycleway") == "opposite" ||
		strings.HasPrefix(way.Tags.Find("cycleway"), "opposite_") {
		return wayDirection{forward: true, backward: true}
	}
	oneway := way.Tags.Find("oneway")
	if oneway == "" && (way.Tags.Find("junction") == "roundabout" || way.Tags.Find("junction") == "circular") {
		oneway = "yes"
	}
	switch oneway {
	case "yes", "true", "1":
		return wayDirection{forward: true}
	case "-1", "reverse":
		return wayDirection{backward: true}
	default:
		return wayDirection{forward: true, backward: true}
	}
}

type wayInfo struct {
	highway  string
	cycleway string
	surface  string
	bikeLane bool
}

func wayInfoOf(way *osm.Way) wayInfo {
	info := wayInfo{
		highway: way.Tags.Find("highway"),
		surface: way.Tags.Find("surface"),
	}
	for _, key := range []string{"cycleway", "cycleway:both", "cycleway:left", "cycleway:right"} {
		val := way.Tags.Find(key)
		if val != "" && val != "no" && val != "none" && val != "separate" {
			info.cycleway = val
			info.bikeLane = true
			break
		}
	}
	if info.highway == "cycleway" {
		info.bikeLane = true
		if info.cycleway == "" {
			info.cycleway = "track"
		}
	}
	return info
}

// parseEle reads an ele tag such as "12", "12.5 m" or "40 ft", in meter.
func parseEle(val string) (float64, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, false
	}
	factor := 1.0
	switch {
	case strings.HasSuffix(val, "ft"):
		factor = 0.3048
		val = strings.TrimSpace(strings.TrimSuffix(val, "ft"))
	case strings.HasSuffix(val, "m"):
		val = strings.TrimSpace(strings.TrimSuffix(val, "m"))
	}
	ele, err := strconv.ParseFloat(strings.Replace(val, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return ele * factor, true
}

func newProgressBar(total int, desc string, show bool) *progressbar.ProgressBar {
	if !show {
		return progressbar.DefaultSilent(int64(total), desc)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
