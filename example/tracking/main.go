/*
Example: track pre-computed detections over a video file.

Detections are supplied as a JSONL file with one line per video frame:

	{"items": [{"bbox": [x, y, width, height], "type": 0, "prob": 0.87}, ...]}

Each processed frame prints a JSON object carrying the frame index and the
live tracks with their ids and traces, plus their labels when a labels file
is given.
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/swdee/go-mtracker/tracker"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gocv.io/x/gocv"
)

func main() {

	vidFile := flag.String("v", "", "Video file to process")
	detFile := flag.String("d", "", "Detections JSONL file, one line per frame")
	cfgFile := flag.String("s", "", "Optional tracker settings JSON file")
	lblFile := flag.String("l", "", "Optional object type labels file")
	flag.Parse()

	if *vidFile == "" || *detFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	settings := tracker.NewSettings()

	if *cfgFile != "" {
		data, err := os.ReadFile(*cfgFile)
		if err != nil {
			logrus.WithError(err).Fatal("error reading settings file")
		}

		settings, err = tracker.LoadSettings(data)
		if err != nil {
			logrus.WithError(err).Fatal("error parsing settings file")
		}
	}

	var labels *tracker.TypeLabels

	if *lblFile != "" {
		var err error
		labels, err = tracker.LoadTypeLabels(*lblFile)
		if err != nil {
			logrus.WithError(err).Fatal("error loading labels file")
		}
	}

	trk, err := tracker.NewTracker(settings)

	if err != nil {
		logrus.WithError(err).Fatal("error creating tracker")
	}

	defer trk.Close()

	vid, err := gocv.OpenVideoCapture(*vidFile)

	if err != nil {
		logrus.WithError(err).Fatal("error opening video file")
	}

	defer vid.Close()

	fps := vid.Get(gocv.VideoCaptureFPS)

	if fps <= 0 {
		fps = 25
	}

	dets, err := os.Open(*detFile)

	if err != nil {
		logrus.WithError(err).Fatal("error opening detections file")
	}

	defer dets.Close()

	scanner := bufio.NewScanner(dets)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)

	frame := gocv.NewMat()
	defer frame.Close()

	frameIdx := 0

	for vid.Read(&frame) {

		if frame.Empty() {
			continue
		}

		line := "{}"

		if scanner.Scan() {
			line = scanner.Text()
		}

		trk.Update(parseRegions(line), frame, fps)

		out, _ := sjson.Set("{}", "frame", frameIdx)
		out, _ = sjson.SetRaw(out, "tracks", trk.TracksJSON())

		if labels != nil {
			for i, track := range trk.Tracks() {
				out, _ = sjson.Set(out, fmt.Sprintf("tracks.%d.label", i), labels.Name(track.Type()))
			}
		}

		fmt.Println(out)
		frameIdx++
	}
}

// parseRegions converts one detections JSONL line into tracker regions
func parseRegions(line string) []tracker.Region {

	items := gjson.Get(line, "items").Array()
	regions := make([]tracker.Region, 0, len(items))

	for _, item := range items {

		bbox := item.Get("bbox").Array()

		if len(bbox) != 4 {
			continue
		}

		regions = append(regions, tracker.NewRegion(
			tracker.NewRect(bbox[0].Float(), bbox[1].Float(), bbox[2].Float(), bbox[3].Float()),
			tracker.ObjectType(item.Get("type").Int()),
			item.Get("prob").Float(),
		))
	}

	return regions
}
