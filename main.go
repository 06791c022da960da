// airsea prepares wind and climate series for the South Shetland study.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/hhkbp2/go-logging"
	"github.com/nehme-lab/airsea-go/dataprep"
	"github.com/pkg/errors"
)

var logger = logging.GetLogger("airsea")

// app is what every subcommand runs against.
type app struct {
	cfg    *dataprep.Config
	format dataprep.Format
	fetch  *dataprep.Fetcher
}

// command pairs a parsed subcommand with its driver.
type command struct {
	cmd *argparse.Command
	run func(a *app) error
}

func main() {
	log.SetFlags(log.Lmicroseconds)
	if err := mainWithErr(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func mainWithErr(args []string) error {
	parser := argparse.NewParser("airsea", "Wind vector conversion and climate data preparation")

	configPath := parser.String("c", "config", &argparse.Options{
		Default: "airsea.yaml",
		Help:    "YAML settings file; built-in defaults when missing"})

	level := parser.Selector("", "log", []string{"DEBUG", "INFO", "WARN", "ERROR", "CRITICAL"}, &argparse.Options{
		Default: "INFO",
		Help:    "log level"})

	format := parser.Selector("f", "format", dataprep.Formats, &argparse.Options{
		Default: string(dataprep.CSV),
		Help:    "table output format"})

	commands := []command{
		windCommand(parser),
		stationUVCommand(parser),
		obs6hCommand(parser),
		wrplotCommand(parser),
		julianCommand(parser),
		gridCommand(parser),
		stationsCommand(parser),
		windroseCommand(parser),
		studyAreaCommand(parser),
	}

	if err := parser.Parse(args); err != nil {
		fmt.Print(parser.Usage(err))
		return errors.Wrap(err, "arguments")
	}

	setLevel(*level)

	cfg, err := dataprep.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	f, err := dataprep.ParseFormat(*format)
	if err != nil {
		return err
	}
	a := &app{
		cfg:    cfg,
		format: f,
		fetch:  &dataprep.Fetcher{CacheDir: cfg.CacheDir},
	}

	for _, c := range commands {
		if c.cmd.Happened() {
			logger.Debugf("running %s", c.cmd.GetName())
			if err := c.run(a); err != nil {
				return errors.Wrap(err, c.cmd.GetName())
			}
			logger.Infof("%s finished", c.cmd.GetName())
			return nil
		}
	}
	return errors.New("no command given")
}

func setLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		logger.SetLevel(logging.LevelDebug)
	case "INFO":
		logger.SetLevel(logging.LevelInfo)
	case "WARN":
		logger.SetLevel(logging.LevelWarn)
	case "ERROR":
		logger.SetLevel(logging.LevelError)
	case "CRITICAL":
		logger.SetLevel(logging.LevelCritical)
	}
}
