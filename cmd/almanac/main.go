// Command almanac answers positional astronomy queries from the terminal:
// where a body is on the sky for an observer, its barycentric state, a
// multi-day track, or a satellite pass from a TLE.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/signalsfoundry/almanac/earth"
	"github.com/signalsfoundry/almanac/ephem"
	"github.com/signalsfoundry/almanac/frames"
	"github.com/signalsfoundry/almanac/satellites"
	"github.com/signalsfoundry/almanac/sites"
	"github.com/signalsfoundry/almanac/solarsystem"
	"github.com/signalsfoundry/almanac/timescale"
)

var (
	app       = kingpin.New("almanac", "Solar-system and satellite positions for observers on Earth.")
	ephName   = app.Flag("ephemeris", "Ephemeris source (builtin, de432s, ...).").Default("").String()
	siteName  = app.Flag("site", "Observatory site name; omit for a geocentric observer.").String()
	sitesFile = app.Flag("sites-file", "Extra observatory sites (JSON).").String()
	ofDate    = app.Flag("of-date", "Report in the true equator and equinox of date, like JPL Horizons.").Bool()

	bodyCmd  = app.Command("body", "Apparent position of a solar-system body.")
	bodyName = bodyCmd.Arg("name", "Body name (sun, moon, mars, ...).").Required().String()
	bodyTime = bodyCmd.Flag("time", "UTC epoch, e.g. 2014-09-25T00:00; default now.").String()

	baryCmd  = app.Command("barycentric", "Barycentric state of a body on J2000 axes.")
	baryName = baryCmd.Arg("name", "Body name.").Required().String()
	baryTime = baryCmd.Flag("time", "UTC epoch; default now.").String()

	trackCmd   = app.Command("track", "Apparent positions over a time range.")
	trackName  = trackCmd.Arg("name", "Body name.").Required().String()
	trackStart = trackCmd.Flag("start", "UTC start epoch.").Required().String()
	trackEnd   = trackCmd.Flag("end", "UTC end epoch.").Required().String()
	trackStep  = trackCmd.Flag("step-days", "Sample step in days.").Default("1").Float64()

	satCmd   = app.Command("satellite", "Observe an Earth satellite from a TLE.")
	satName  = satCmd.Flag("name", "Display name.").Default("satellite").String()
	satLine1 = satCmd.Arg("line1", "TLE line 1.").Required().String()
	satLine2 = satCmd.Arg("line2", "TLE line 2.").Required().String()
	satTime  = satCmd.Flag("time", "UTC epoch; default now.").String()

	sitesCmd = app.Command("sites", "List known observatory sites.")
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	reg, err := sites.Default()
	if err != nil {
		app.Fatalf("site registry: %v", err)
	}
	if *sitesFile != "" {
		if err := reg.MergeFile(*sitesFile); err != nil {
			app.Fatalf("merge sites from %s: %v", *sitesFile, err)
		}
	}

	var loc *earth.Location
	if *siteName != "" {
		l, err := reg.Location(*siteName)
		if err != nil {
			app.Fatalf("%v", err)
		}
		loc = &l
	}

	switch cmd {
	case bodyCmd.FullCommand():
		runBody(loc)
	case baryCmd.FullCommand():
		runBarycentric()
	case trackCmd.FullCommand():
		runTrack(loc)
	case satCmd.FullCommand():
		runSatellite(loc)
	case sitesCmd.FullCommand():
		for _, name := range reg.Names() {
			fmt.Println(name)
		}
	}
}

func parseEpoch(raw string) timescale.Time {
	if raw == "" {
		return timescale.FromTime(time.Now().UTC())
	}
	t, err := timescale.Parse(raw)
	if err != nil {
		app.Fatalf("%v", err)
	}
	return t
}

func runBody(loc *earth.Location) {
	at := parseEpoch(*bodyTime)
	c, err := solarsystem.GetBody(*bodyName, at, loc, solarsystem.WithEphemeris(*ephName))
	if err != nil {
		app.Fatalf("%v", err)
	}
	if *ofDate {
		c = frames.ApparentInTrueCoordinates(c)
	}
	printCoord(*bodyName, at, c)
}

func runBarycentric() {
	at := parseEpoch(*baryTime)
	opt := solarsystem.WithEphemeris(*ephName)

	pos, vel, err := solarsystem.GetBodyBarycentricPosVel(*baryName, at, opt)
	if err == nil {
		fmt.Printf("%s  %s\n", *baryName, at)
		fmt.Printf("  pos  % .3f  % .3f  % .3f km\n", pos.X, pos.Y, pos.Z)
		fmt.Printf("  vel  % .6f  % .6f  % .6f km/s\n", vel.X, vel.Y, vel.Z)
		return
	}
	pos, perr := solarsystem.GetBodyBarycentric(*baryName, at, opt)
	if perr != nil {
		app.Fatalf("%v", perr)
	}
	fmt.Printf("%s  %s\n", *baryName, at)
	fmt.Printf("  pos  % .3f  % .3f  % .3f km  (no velocity: %v)\n", pos.X, pos.Y, pos.Z, err)
}

func runTrack(loc *earth.Location) {
	start := parseEpoch(*trackStart)
	end := parseEpoch(*trackEnd)
	coords, err := solarsystem.Track(*trackName, start, end, *trackStep, loc,
		solarsystem.WithEphemeris(*ephName))
	if err != nil {
		app.Fatalf("%v", err)
	}
	at := start
	for _, c := range coords {
		if *ofDate {
			c = frames.ApparentInTrueCoordinates(c)
		}
		printCoord(*trackName, at, c)
		at = at.AddDays(*trackStep)
	}
}

func runSatellite(loc *earth.Location) {
	sat, err := satellites.FromTLE(*satName, *satLine1, *satLine2)
	if err != nil {
		app.Fatalf("%v", err)
	}
	at := parseEpoch(*satTime)
	obs := sat.Observe(at, loc)

	fmt.Printf("%s  %s\n", sat.Name(), at)
	fmt.Printf("  ra %s  dec %s  range %.1f km\n",
		obs.Coord.RA.FormatHMS(2), obs.Coord.Dec.FormatDMS(1), obs.Range.Kilometers())
	if loc != nil {
		fmt.Printf("  az %.2f deg  el %.2f deg  visible %v\n",
			obs.Azimuth.Degrees(), obs.Elevation.Degrees(), obs.Visible())
	}
}

func printCoord(name string, at timescale.Time, c frames.SkyCoord) {
	fmt.Printf("%s  %s  [%s]\n", name, at, ephemerisLabel())
	fmt.Printf("  ra %s  dec %s  dist %.6f AU  (%.1f km, %.4f light-min)\n",
		c.RA.FormatHMS(2), c.Dec.FormatDMS(1),
		c.Distance.AU(), c.Distance.Kilometers(), c.Distance.LightMinutes())
}

func ephemerisLabel() string {
	if *ephName != "" {
		return *ephName
	}
	return ephem.DefaultName()
}
