// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// newApp builds the root command. Global flags are applied by [Runner.configure]
// before any subcommand runs.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ptb",
		Usage:   "Personal toolbox: PDFs, images, passwords, QR codes, and YouTube downloads",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Backend base URL",
				Sources: cli.EnvVars(shared.EnvAPIURL),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn, or error",
			},
		},
		Before:   r.configure,
		Commands: r.register(),
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output JSON"}
}

func outDirFlag() cli.Flag {
	return &cli.StringFlag{Name: "out-dir", Aliases: []string{"o"}, Usage: "Directory to save into (default: current directory)"}
}

func moveFlag() cli.Flag {
	return &cli.StringSliceFlag{Name: "move", Usage: "Reorder staged files before upload, as from:to (1-based, repeatable)"}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and history database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a default config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

func pdfCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pdf",
		Usage: "Combine images into a PDF",
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert PNG/JPEG images to one PDF, one page per image",
				ArgsUsage: "<image>...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "dpi",
						Usage: fmt.Sprintf("Resolution between %d and %d", models.MinDPI, models.MaxDPI),
						Value: models.DefaultDPI,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Output file name without extension",
						Value: models.DefaultPDFOut,
					},
					outDirFlag(),
					moveFlag(),
				},
				Action: r.PDFConvert,
			},
			{
				Name:   "info",
				Usage:  "Show converter limits",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PDFInfo,
			},
		},
	}
}

func imageCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "image",
		Usage: "Image format conversion",
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert images; several inputs come back as a zip",
				ArgsUsage: "<image>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Target format: " + strings.Join(models.ImageFormats, ", "),
						Value:   "png",
					},
					outDirFlag(),
					moveFlag(),
				},
				Action: r.ImageConvert,
			},
		},
	}
}

func passwordCommand(r *Runner) *cli.Command {
	defaults := models.DefaultPasswordOptions()
	return &cli.Command{
		Name:    "password",
		Aliases: []string{"pw"},
		Usage:   "Generate passwords",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "length",
				Aliases: []string{"l"},
				Usage:   fmt.Sprintf("Password length (%d-%d)", models.MinPasswordLength, models.MaxPasswordLength),
				Value:   defaults.Length,
			},
			&cli.BoolFlag{Name: "no-uppercase", Usage: "Exclude uppercase letters"},
			&cli.BoolFlag{Name: "no-lowercase", Usage: "Exclude lowercase letters"},
			&cli.BoolFlag{Name: "no-numbers", Usage: "Exclude numbers"},
			&cli.BoolFlag{Name: "no-symbols", Usage: "Exclude symbols"},
			&cli.IntFlag{Name: "min-numbers", Usage: "Minimum count of numbers", Value: defaults.MinNumbers},
			&cli.IntFlag{Name: "min-symbols", Usage: "Minimum count of symbols", Value: defaults.MinSymbols},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of passwords to generate",
				Value:   1,
			},
			&cli.IntFlag{Name: "workers", Usage: "Concurrent requests", Value: 4},
			&cli.FloatFlag{Name: "rate", Usage: "Requests per second", Value: 5},
			jsonFlag(),
		},
		Action: r.PasswordGenerate,
	}
}

func qrCommand(r *Runner) *cli.Command {
	generateFlags := append(qrRenderFlags(),
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Content type: url, text, wifi, contact, email",
			Value:   string(models.QRURL),
		},
		&cli.StringSliceFlag{
			Name:    "content",
			Aliases: []string{"c"},
			Usage:   "Content field as key=value (repeatable), e.g. ssid=home",
		},
		&cli.IntFlag{Name: "size", Usage: fmt.Sprintf("Image size in pixels (%d-%d)", models.MinQRSize, models.MaxQRSize)},
		&cli.StringFlag{Name: "fg", Usage: "Foreground color"},
		&cli.StringFlag{Name: "bg", Usage: "Background color"},
		&cli.StringFlag{Name: "error-correction", Usage: "Error correction level: L, M, Q, H"},
		&cli.IntFlag{Name: "border", Usage: "Quiet zone size in modules"},
		&cli.StringFlag{Name: "corner-style", Usage: "square or rounded"},
		outDirFlag(),
	)

	watchFlags := append(qrRenderFlags(),
		&cli.StringFlag{Name: "output", Usage: "Also copy every preview to this path"},
		&cli.StringFlag{Name: "serve", Usage: "Serve a live preview page on this address, e.g. localhost:8090"},
	)

	return &cli.Command{
		Name:  "qr",
		Usage: "Generate QR codes",
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Aliases:   []string{"gen"},
				Usage:     "Generate a QR code from flags or a TOML file",
				ArgsUsage: "[content]",
				Flags:     generateFlags,
				Action:    r.QRGenerate,
			},
			{
				Name:   "watch",
				Usage:  "Regenerate a preview whenever the TOML file changes",
				Flags:  watchFlags,
				Action: r.QRWatch,
			},
		},
	}
}

func mockCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "mock",
		Usage:     "aLtErNaTe LeTtEr CaSe",
		ArgsUsage: "[text] (default: stdin)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "lower-first", Usage: "Start with a lowercase letter"},
		},
		Action: r.MockText,
	}
}

func youtubeCommand(r *Runner) *cli.Command {
	urlArg := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "url"}}
	}
	selectionFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:    "range",
				Aliases: []string{"r"},
				Usage:   fmt.Sprintf("1-based inclusive range, e.g. 1-10 (max %d)", models.MaxPlaylistSelection),
			},
			&cli.StringSliceFlag{Name: "exclude", Aliases: []string{"x"}, Usage: "Video id to leave out (repeatable)"},
		}
	}

	return &cli.Command{
		Name:    "youtube",
		Aliases: []string{"yt"},
		Usage:   "YouTube video and playlist downloads",
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "Show a video's title and thumbnail",
				Arguments: urlArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "thumbnail", Usage: "Save the thumbnail to this path"},
					jsonFlag(),
				},
				Action: r.YTInfo,
			},
			{
				Name:      "download",
				Aliases:   []string{"dl"},
				Usage:     "Download one video as mp3 or mp4",
				Arguments: urlArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "mp3 or mp4",
						Value:   string(models.FormatMP3),
					},
					outDirFlag(),
				},
				Action: r.YTDownload,
			},
			{
				Name:  "playlist",
				Usage: "Playlist listing and zip downloads",
				Commands: []*cli.Command{
					{
						Name:      "info",
						Usage:     "List the videos of a playlist",
						Arguments: urlArg(),
						Flags: append(selectionFlags(),
							&cli.StringFlag{
								Name:    "format",
								Aliases: []string{"f"},
								Usage:   "text, csv, markdown, or json",
								Value:   "text",
							},
							&cli.StringFlag{
								Name:  "output",
								Usage: "Write the listing to a file (default name from the playlist title)",
							},
						),
						Action: r.YTPlaylistInfo,
					},
					{
						Name:      "download",
						Aliases:   []string{"dl"},
						Usage:     "Zip the selected videos and save or open the archive",
						Arguments: urlArg(),
						Flags: append(selectionFlags(),
							&cli.BoolFlag{Name: "open", Usage: "Open the download link in a browser instead of saving"},
							&cli.DurationFlag{Name: "interval", Usage: "Progress poll interval (default from config)"},
							outDirFlag(),
						),
						Action: r.YTPlaylistDownload,
					},
				},
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	idArg := []cli.Argument{&cli.StringArg{Name: "id"}}
	return &cli.Command{
		Name:  "history",
		Usage: "Recorded playlist jobs and saved files",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List recorded jobs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "state", Usage: "Filter by state: starting, polling, complete, failed"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum rows", Value: 20},
					&cli.BoolFlag{Name: "csv", Usage: "Output CSV"},
					&cli.BoolFlag{Name: "conversions", Usage: "List saved tool outputs instead of jobs"},
					&cli.StringFlag{Name: "tool", Usage: "Filter conversions by tool"},
					jsonFlag(),
				},
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Show one job by id or sequence",
				Arguments: idArg,
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.HistoryShow,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete one job by id or sequence",
				Arguments: idArg,
				Action:    r.HistoryDelete,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	pathArg := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "path"}}
	}
	prettyFlag := func() cli.Flag {
		return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true}
	}

	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the tools backend",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the response body",
				Arguments: pathArg(),
				Flags:     []cli.Flag{prettyFlag()},
				Action:    r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: pathArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
					prettyFlag(),
				},
				Action: r.APIPost,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"ui"},
		Usage:     "Interactive playlist downloader",
		Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
		Flags:     []cli.Flag{outDirFlag()},
		Action:    r.TUI,
	}
}

