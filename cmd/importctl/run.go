package main

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sabuysoft/wms-import/internal/flow"
	"github.com/sabuysoft/wms-import/internal/importer"
)

func newRunCmd() *cobra.Command {
	var (
		sourceURL string
		dataPath  string
		apiKey    string
		platform  string
		shopName  string
		useCache  bool
		mapFlags  []string
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "run <module>",
		Short: "Preview and commit one import",
		Long: `Fetch a dataset from an external API, show the suggested field
mapping and a preview of the mapped rows, then commit the batch after
confirmation. Mapping overrides are given as canonical=source pairs,
for example --map order_id=orderSn.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, ok := importer.GetModule(args[0])
			if !ok {
				return fmt.Errorf("unknown module %q (have: %s)", args[0], strings.Join(importer.ModuleKeys(), ", "))
			}

			confirm := func(rows int) bool {
				if yes {
					return true
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Import %d rows into %s? [y/N] ", rows, mod.Key)
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer := strings.ToLower(strings.TrimSpace(line))
				return answer == "y" || answer == "yes"
			}

			f := flow.New(flow.Options{
				Module:  mod,
				Backend: apiClient(cmd),
				Confirm: confirm,
			})

			st, err := f.RequestPreview(cmd.Context(), flow.PreviewParams{
				SourceURL:  sourceURL,
				DataPath:   dataPath,
				Credential: apiKey,
				Platform:   platform,
				ShopName:   shopName,
				UseCache:   useCache,
			})
			if err != nil {
				return err
			}

			if len(mapFlags) > 0 {
				overrides, err := parseMapFlags(mapFlags)
				if err != nil {
					return err
				}
				mapping := st.Mapping
				for key, src := range overrides {
					mapping[key] = src
				}
				if st, err = f.SetMapping(mapping); err != nil {
					return err
				}
			}

			printState(cmd, mod, st)

			res, err := f.Commit(cmd.Context())
			if err != nil {
				if err == flow.ErrCommitDeclined {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows (batch %s)\n", res.Imported, res.ImportDate)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceURL, "url", "", "source API URL (required)")
	cmd.Flags().StringVar(&dataPath, "data-path", "", "dot-separated path to the row array, e.g. data.items")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "bearer credential for the source API")
	cmd.Flags().StringVar(&platform, "platform", "", "marketplace platform, e.g. shopee")
	cmd.Flags().StringVar(&shopName, "shop", "", "shop name the rows belong to")
	cmd.Flags().BoolVar(&useCache, "cache", true, "reuse a cached preview when one exists")
	cmd.Flags().StringArrayVar(&mapFlags, "map", nil, "mapping override, canonical=source (repeatable)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "commit without asking")
	cmd.MarkFlagRequired("url")

	return cmd
}

func parseMapFlags(pairs []string) (importer.Mapping, error) {
	mapping := make(importer.Mapping, len(pairs))
	for _, pair := range pairs {
		key, src, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --map value %q, want canonical=source", pair)
		}
		mapping[strings.TrimSpace(key)] = strings.TrimSpace(src)
	}
	return mapping, nil
}

func printState(cmd *cobra.Command, mod importer.ImportModule, st *flow.State) {
	out := cmd.OutOrStdout()

	cached := ""
	if st.FromCache {
		cached = " (cached)"
	}
	fmt.Fprintf(out, "%d rows fetched%s\n\nField mapping:\n", st.TotalRows, cached)

	labels := mod.Labels()
	for _, f := range mod.Fields {
		src := st.Mapping[f.Key]
		if src == "" {
			src = "-"
		}
		fmt.Fprintf(out, "  %-16s %-20s <- %s\n", f.Key, labels[f.Key], src)
	}

	fmt.Fprintf(out, "\nPreview (first %d rows):\n", len(st.Preview))
	for i, row := range st.Preview {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, row[k]))
		}
		fmt.Fprintf(out, "  %2d. %s\n", i+1, strings.Join(parts, "  "))
	}
	fmt.Fprintln(out)
}
