package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tendant/postcrud/pkg/postcrud"
)

type app struct {
	env      Env
	out      io.Writer
	logger   *slog.Logger
	hooks    *postcrud.Hooks
	openHost func(ctx context.Context) (postcrud.Host, func() error, error)

	// flags
	hostURL  string
	token    string
	postType string
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "postcrud",
		Short:         "Create, read, update and delete content items",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&a.hostURL, "host", a.env.HostURL, "Host URL (http(s)://, postgres://, redis://, badger://dir or memory)")
	root.PersistentFlags().StringVar(&a.token, "token", a.env.APIToken, "Bearer token for a remote host")
	root.PersistentFlags().StringVarP(&a.postType, "type", "t", string(postcrud.PostTypePost), "Post type of the item")

	root.AddCommand(a.createCmd())
	root.AddCommand(a.getCmd())
	root.AddCommand(a.updateCmd())
	root.AddCommand(a.deleteCmd())
	root.AddCommand(a.metaCmd())
	return root
}

func (a *app) createCmd() *cobra.Command {
	var fields, meta []string
	var autoSlug bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if autoSlug {
				a.hooks = &postcrud.Hooks{BeforeCreate: []postcrud.BeforeWriteHook{postcrud.AutoSlug}}
			}
			return a.withItem(cmd.Context(), 0, func(ctx context.Context, item *postcrud.Item) error {
				if err := applyAssignments(fields, item.SetField); err != nil {
					return err
				}
				if err := applyAssignments(meta, item.SetMeta); err != nil {
					return err
				}
				if err := item.Create(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, item.ID())
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Column assignment key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&meta, "meta", "m", nil, "Metadata assignment key=value (repeatable)")
	cmd.Flags().BoolVar(&autoSlug, "auto-slug", false, "Derive post_name from post_title when not given")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print an item's columns as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withItem(cmd.Context(), id, func(ctx context.Context, item *postcrud.Item) error {
				if err := item.Read(ctx); err != nil {
					return err
				}
				return a.printJSON(item.Fields().Fields)
			})
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	var fields, meta []string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an item's columns and metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if len(fields) == 0 && len(meta) == 0 {
				return fmt.Errorf("nothing to update: pass --field or --meta")
			}
			return a.withItem(cmd.Context(), id, func(ctx context.Context, item *postcrud.Item) error {
				if err := applyAssignments(fields, item.SetField); err != nil {
					return err
				}
				if err := applyAssignments(meta, item.SetMeta); err != nil {
					return err
				}
				return item.Update(ctx)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Column assignment key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&meta, "meta", "m", nil, "Metadata assignment key=value (repeatable)")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	var trash bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item permanently, or move it to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if trash {
				host, closeHost, err := a.openHost(cmd.Context())
				if err != nil {
					return err
				}
				defer closeHost()
				return host.DeleteItem(cmd.Context(), id, false)
			}
			return a.withItem(cmd.Context(), id, func(ctx context.Context, item *postcrud.Item) error {
				return item.Delete(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&trash, "trash", false, "Move to the trash instead of deleting")
	return cmd
}

func (a *app) metaCmd() *cobra.Command {
	meta := &cobra.Command{
		Use:   "meta",
		Short: "Read or write item metadata",
	}

	meta.AddCommand(&cobra.Command{
		Use:   "get <id> <key>",
		Short: "Print a metadata value as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withItem(cmd.Context(), id, func(ctx context.Context, item *postcrud.Item) error {
				v, err := item.Meta(ctx, args[1])
				if err != nil {
					return err
				}
				return a.printJSON(v)
			})
		},
	})

	meta.AddCommand(&cobra.Command{
		Use:   "set <id> <key> <value>",
		Short: "Write a metadata value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withItem(cmd.Context(), id, func(ctx context.Context, item *postcrud.Item) error {
				item.SetMeta(args[1], parseValue(args[2]))
				return item.Update(ctx)
			})
		},
	})

	return meta
}

// withItem opens the host, binds an item of the selected post type to id
// (0 for a new item) and runs fn.
func (a *app) withItem(ctx context.Context, id int64, fn func(context.Context, *postcrud.Item) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	host, closeHost, err := a.openHost(ctx)
	if err != nil {
		return err
	}
	defer closeHost()

	opts := []postcrud.Option{postcrud.WithHooks(a.hooks)}
	if a.logger != nil {
		opts = append(opts, postcrud.WithLogger(a.logger))
	}
	item := postcrud.PostType(a.postType).New(host, opts...)
	item.SetID(id)
	return fn(ctx, item)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}
