package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hydrosolve/mfio/internal/logger"
	"github.com/hydrosolve/mfio/internal/model"
	"github.com/hydrosolve/mfio/pkg/dset"
)

var (
	namPath string
	refDir  string
	double  bool
	useDset bool
)

func commonDeckFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "nam",
			Aliases:     []string{"n"},
			Usage:       "path to the manifest (name file)",
			Destination: &namPath,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "ref-dir",
			Usage:       "directory referenced files resolve against (default: manifest's directory)",
			Destination: &refDir,
		},
		&cli.BoolFlag{
			Name:        "double",
			Usage:       "decode real arrays in double precision",
			Destination: &double,
		},
		&cli.BoolFlag{
			Name:        "dset",
			Usage:       "resolve HDF5-style control records against DSET containers",
			Value:       true,
			Destination: &useDset,
		},
	}
}

// readDeck decodes the manifest named by the common flags.
func readDeck(ctx context.Context, cmd *cli.Command) (*model.Manifest, error) {
	cfg := LoadConfig()
	if cfg.RefDir != "" && !cmd.IsSet("ref-dir") {
		refDir = cfg.RefDir
	}
	if cfg.Double != nil && !cmd.IsSet("double") {
		double = *cfg.Double
	}
	opts := model.ReadOpts{
		Log:    logger.FromContext(ctx),
		RefDir: refDir,
		Double: double,
	}
	if useDset {
		opts.Datasets = dset.Slicer{}
	}
	m, err := model.ReadWith(namPath, opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", namPath, err)
	}
	return m, nil
}
