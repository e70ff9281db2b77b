package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"masseffect-save-edit/config"
	"masseffect-save-edit/me1"
	"masseffect-save-edit/utils"
)

var (
	log = logrus.New()
	cfg = &config.Config{}
)

func main() {
	app := &cli.App{
		Name:  "masseffect-save-edit",
		Usage: "inspect and transcode Mass Effect save files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a TOML config file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(ctx *cli.Context) error {
			if ctx.Bool("verbose") || config.DEBUG {
				log.SetLevel(logrus.DebugLevel)
			}
			loaded, err := config.Load(ctx.String("config"))
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		Commands: []*cli.Command{
			infoCommand(),
			jsonCommand(),
			extractCommand(),
			verifyCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadSave reads and decodes a save file. Relative paths that do not
// resolve are retried against the configured save directory.
func loadSave(path string) (*me1.SaveGame, []byte, error) {
	if _, err := os.Stat(path); err != nil && cfg.SaveDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(cfg.SaveDir, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	save, err := me1.Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	return save, raw, nil
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "summarize a save file",
		ArgsUsage: "<file>",
		Action: func(ctx *cli.Context) error {
			save, raw, err := loadSave(ctx.Args().First())
			if err != nil {
				return err
			}

			total := 0
			me1.Walk(save.Player.Data.Properties, func(p *me1.Property) {
				total++
			})

			if cfg.Debug.DumpJSON {
				name := strings.TrimSuffix(filepath.Base(ctx.Args().First()), filepath.Ext(ctx.Args().First()))
				if err := utils.DumpJSON("json", name, save.Player); err != nil {
					log.WithError(err).Warn("debug dump failed")
				}
			}

			log.WithFields(logrus.Fields{
				"file":               ctx.Args().First(),
				"size":               len(raw),
				"names":              len(save.Player.Names),
				"properties":         total,
				"state_bytes":        len(save.State),
				"world_save_package": save.WorldSavePackage != nil,
			}).Info("decoded save")
			return nil
		},
	}
}

func jsonCommand() *cli.Command {
	return &cli.Command{
		Name:      "json",
		Usage:     "dump the decoded player record as JSON",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Value: "json",
				Usage: "output directory",
			},
		},
		Action: func(ctx *cli.Context) error {
			file := ctx.Args().First()
			save, _, err := loadSave(file)
			if err != nil {
				return err
			}

			name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			if err := utils.DumpJSON(ctx.String("out"), name, save.Player); err != nil {
				return err
			}
			log.WithField("dir", ctx.String("out")).Info("wrote player JSON")
			return nil
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "write the raw archive entries next to each other",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Value: "extracted",
				Usage: "output directory",
			},
		},
		Action: func(ctx *cli.Context) error {
			save, _, err := loadSave(ctx.Args().First())
			if err != nil {
				return err
			}

			out := ctx.String("out")
			playerData, err := save.Player.Encode()
			if err != nil {
				return err
			}
			if err := utils.DumpBinary(out, me1.EntryPlayer, playerData); err != nil {
				return err
			}
			if err := utils.DumpBinary(out, me1.EntryState, save.State); err != nil {
				return err
			}
			if save.WorldSavePackage != nil {
				if err := utils.DumpBinary(out, me1.EntryWorldSavePackage, save.WorldSavePackage); err != nil {
					return err
				}
			}
			log.WithField("dir", out).Info("extracted archive entries")
			return nil
		},
	}
}

// verifyCommand decodes each file, re-encodes it, and checks that a second
// decode/encode pass reproduces the first encoding byte for byte. Files are
// independent buffers, so they are checked concurrently.
func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "round-trip save files and report any byte drift",
		ArgsUsage: "<file>...",
		Action: func(ctx *cli.Context) error {
			g, _ := errgroup.WithContext(ctx.Context)
			for _, file := range ctx.Args().Slice() {
				file := file
				g.Go(func() error {
					return verifyFile(file)
				})
			}
			return g.Wait()
		},
	}
}

func verifyFile(path string) error {
	save, _, err := loadSave(path)
	if err != nil {
		return err
	}

	first, err := save.Encode()
	if err != nil {
		return err
	}
	if cfg.Debug.DumpBinary {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := utils.DumpBinary("binary", name, first); err != nil {
			log.WithError(err).Warn("debug dump failed")
		}
	}
	again, err := me1.Decode(first)
	if err != nil {
		return err
	}
	second, err := again.Encode()
	if err != nil {
		return err
	}

	if !bytes.Equal(first, second) {
		log.WithField("file", path).Error("encode is not stable")
		return cli.Exit("verification failed: "+path, 1)
	}

	log.WithField("file", path).Info("round trip ok")
	return nil
}
