package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/kexin94yyds/RI-Flow/internal"
	"github.com/kexin94yyds/RI-Flow/internal/apperr"
	"github.com/kexin94yyds/RI-Flow/internal/collection"
	"github.com/kexin94yyds/RI-Flow/internal/itemservice"
	"github.com/kexin94yyds/RI-Flow/internal/models"
	"github.com/kexin94yyds/RI-Flow/internal/prompt"
)

var errUsage = errors.New("usage error")

// withApp opens the application for a one-shot command. Logs go to stderr
// at warn level so stdout stays clean.
func withApp(fn func(ctx context.Context, cmd *cli.Command, a *internal.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.App.LogLevel < slog.LevelWarn {
			cfg.App.LogLevel = slog.LevelWarn
		}

		a, err := internal.Open(ctx, []internal.Option{
			internal.WithConfig(cfg),
			internal.WithLogOutput(os.Stderr),
		})
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, cmd, a)
	}
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.Args().First()
	if v == "" {
		return "", fmt.Errorf("%w: %s requires <%s>", errUsage, cmd.Name, name)
	}
	return v, nil
}

func printItems(w io.Writer, items []models.Item) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, it := range items {
		pin := " "
		if it.Pinned {
			pin = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			pin, it.ID, it.Platform, models.CategoryLabel(it.Category), it.Title, it.URL)
	}
	_ = tw.Flush()
}

// reportImport prints the outcome of a merge; a declined prompt is not an error.
func reportImport(w io.Writer, res itemservice.ImportResult, err error) error {
	if errors.Is(err, apperr.ErrCancelled) {
		fmt.Fprintln(w, "import cancelled, nothing changed")
		return nil
	}
	if err != nil {
		return err
	}
	if res.Host != "" {
		fmt.Fprintf(w, "imported %d items from %s, %d in total\n", res.Imported, res.Host, res.Total)
		return nil
	}
	fmt.Fprintf(w, "imported %d items, %d in total\n", res.Imported, res.Total)
	return nil
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved items",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Value: collection.FilterAll, Usage: "Twitter, YouTube, Web or all"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *internal.App) error {
			items, _ := a.Service.List(ctx, cmd.String("platform"))
			printItems(os.Stdout, items)
			return nil
		}),
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Save a URL",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}},
			&cli.StringFlag{Name: "category", Aliases: []string{"k"}, Value: models.CategoryReadLater},
			&cli.StringFlag{Name: "note", Aliases: []string{"n"}},
			&cli.BoolFlag{Name: "clipboard", Usage: "Take the URL from the clipboard"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *internal.App) error {
			url := cmd.Args().First()
			if cmd.Bool("clipboard") {
				u, err := prompt.ClipboardURL()
				if err != nil {
					return err
				}
				url = u
			}
			if url == "" {
				return fmt.Errorf("%w: add requires <url> or --clipboard", errUsage)
			}

			item, _, err := a.Service.Add(ctx, itemservice.AddParams{
				URL:      url,
				Title:    cmd.String("title"),
				Category: cmd.String("category"),
				Note:     cmd.String("note"),
			})
			if err != nil {
				return err
			}
			printItems(os.Stdout, []models.Item{item})
			return nil
		}),
	}
}

func pinCommand() *cli.Command {
	return &cli.Command{
		Name:      "pin",
		Usage:     "Pin or unpin an item",
		ArgsUsage: "<id>",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *internal.App) error {
			id, err := requireArg(cmd, "id")
			if err != nil {
				return err
			}
			items, err := a.Service.TogglePin(ctx, id)
			if err != nil {
				return err
			}
			printItems(os.Stdout, items)
			return nil
		}),
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete an item",
		ArgsUsage: "<id>",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *internal.App) error {
			id, err := requireArg(cmd, "id")
			if err != nil {
				return err
			}
			if _, err := a.Service.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Println("deleted", id)
			return nil
		}),
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write a dated backup file",
		ArgsUsage: "[dir]",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *internal.App) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = "."
			}
			name, data, err := a.Service.Export(ctx)
			if err != nil {
				return err
			}
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Println(path)
			return nil
		}),
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Merge a backup file into the collection",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *internal.App) error {
			path, err := requireArg(cmd, "file")
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			res, err := a.Service.Import(ctx, data, prompt.ImportConfirm(cmd.Bool("yes")))
			return reportImport(os.Stdout, res, err)
		}),
	}
}

func pullCommand() *cli.Command {
	return &cli.Command{
		Name:  "pull",
		Usage: "Import the collection of a desktop host",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Desktop host; probes desktop.hosts when empty"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *internal.App) error {
			res, err := a.Service.PullDesktop(ctx, cmd.String("host"), prompt.ImportConfirm(cmd.Bool("yes")))
			if errors.Is(err, apperr.ErrUnavailable) {
				return fmt.Errorf("desktop host unreachable: %w", err)
			}
			return reportImport(os.Stdout, res, err)
		}),
	}
}
