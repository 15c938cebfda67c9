package cmd

import (
	"github.com/spf13/cobra"

	"satori/internal/cache"
	"satori/internal/cli"
	"satori/internal/datastores"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached datastores and databases",
		Long: `Lists the datastores and databases stored by the last login.

The list commands only read the cache. Run 'satori login' to refresh it.`,
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", cli.OutputPlain, "Output format (plain, table)")

	cmd.AddCommand(&cobra.Command{
		Use:   "datastores",
		Short: "List the datastores you can access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := loadCachedInventory(opts)
			if err != nil {
				return err
			}
			var records []datastores.Record
			for _, name := range inv.Names() {
				record, _ := inv.Get(name)
				records = append(records, record)
			}
			return cli.RenderDatastores(cmd.OutOrStdout(), records, output)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "databases <datastore>",
		Short: "List the databases of a datastore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := loadCachedInventory(opts)
			if err != nil {
				return err
			}
			record, err := inv.Get(args[0])
			if err != nil {
				return err
			}
			return cli.RenderDatabases(cmd.OutOrStdout(), record, output)
		},
	})

	return cmd
}

func loadCachedInventory(opts *rootOptions) (*datastores.Inventory, error) {
	dir, err := resolveCacheDir(opts)
	if err != nil {
		return nil, err
	}
	st := cache.NewInventoryStore(dir).Load()
	if !st.IsFresh() {
		if st.Corrupt() {
			return nil, st.Reason
		}
		return nil, errNoCache
	}
	return st.Value, nil
}
