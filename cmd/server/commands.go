package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/liondadev/quick-file-stash/reader"
	"github.com/liondadev/quick-file-stash/server"
	"github.com/liondadev/quick-file-stash/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "qfs",
		Short:         "A small stash for files, kept as data urls in a key-value store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context(), cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.ConfigPath, "config", "", "path to a config file")
	flags.StringVar(&a.opts.Driver, "store", "", "store driver: sqlite, bolt, file or memory")
	flags.StringVar(&a.opts.StorePath, "store-path", "", "database file or directory for the store")
	flags.StringVar(&a.opts.Key, "key", "", "key the file list is kept under")

	root.AddCommand(
		newServeCommand(a),
		newListCommand(a),
		newAddCommand(a),
		newRemoveCommand(a),
		newGetCommand(a),
		newThumbCommand(a),
	)

	return root
}

func newServeCommand(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload page and the json api",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.ListenAddr = listen
			}

			svr := server.New(a.cfg, a.reg, a.log)
			if err := svr.SetupHTTP(); err != nil {
				return fmt.Errorf("setup http: %w", err)
			}

			return svr.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on, overrides listen_addr")

	return cmd
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List stored files, oldest first",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			files := a.reg.List()
			if len(files) == 0 {
				fmt.Fprintln(a.out, "No files uploaded yet")
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tUPLOADED")
			for _, f := range files {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", f.ID, f.Name, f.MimeType, humanize.IBytes(uint64(f.Size)), uploadedLabel(f))
			}

			return tw.Flush()
		},
	}
}

func uploadedLabel(f types.FileRecord) string {
	t := f.UploadedAt()
	if t.IsZero() {
		return f.UploadDate
	}

	return humanize.Time(t)
}

func newAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Store files from disk",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				h, err := reader.FromPath(a.fs, path)
				if err != nil {
					return err
				}

				rec, err := a.reg.Add(cmd.Context(), h)
				if err != nil {
					return fmt.Errorf("add %s: %w", path, err)
				}

				fmt.Fprintf(a.out, "%d\t%s\n", rec.ID, rec.Name)
			}

			return nil
		},
	}
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Remove stored files",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			for _, id := range ids {
				removed, err := a.reg.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(a.errOut, "no file with id %d\n", id)
					continue
				}

				fmt.Fprintf(a.out, "removed %d\n", id)
			}

			return nil
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid file id %q", arg)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (a *app) lookup(arg string) (types.FileRecord, reader.Decoded, error) {
	ids, err := parseIDs([]string{arg})
	if err != nil {
		return types.FileRecord{}, reader.Decoded{}, err
	}

	rec, ok := a.reg.Get(ids[0])
	if !ok {
		return types.FileRecord{}, reader.Decoded{}, fmt.Errorf("no file with id %d", ids[0])
	}

	dec, err := reader.Decode(rec.Data)
	if err != nil {
		return types.FileRecord{}, reader.Decoded{}, fmt.Errorf("decode file %d: %w", rec.ID, err)
	}

	return rec, dec, nil
}

func (a *app) writeOutput(path string, r io.Reader) error {
	if path == "" || path == "-" {
		_, err := io.Copy(a.out, r)
		return err
	}

	return afero.WriteReader(a.fs, path, r)
}

func newGetCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Write the content of a stored file to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_, dec, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			return a.writeOutput(out, bytes.NewReader(dec.Data))
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write to, stdout when empty")

	return cmd
}

func newThumbCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "thumb <id>",
		Short: "Make a thumbnail of a stored image",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			rec, dec, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			thumb, _, err := server.MakeThumbnail(rec.MimeType, bytes.NewReader(dec.Data))
			if err != nil {
				return err
			}

			return a.writeOutput(out, thumb)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write to")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
