package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/GoPolymarket/sasgate/internal/config"
	"github.com/GoPolymarket/sasgate/internal/pkg/logger"
	"github.com/GoPolymarket/sasgate/internal/shareasale"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "inspector",
		Short:        "Inspect the ShareASale report catalog and debug requests",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config-file", "C", "", "Path to config.yaml (default: ./config.yaml or ./configs/config.yaml)")
	root.PersistentFlags().Bool("json", false, "Print JSON instead of tables")

	root.AddCommand(actionsCmd(), signCmd(), fetchCmd())
	return root
}

func actionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List report actions with their inputs and typed outputs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			schemas := catalog()
			if asJSON(cmd) {
				return printJSON(schemas)
			}
			for _, s := range schemas {
				pterm.DefaultSection.Println(string(s.Action))
				out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().
					WithData(schemaTable(s)).Srender()
				if err != nil {
					return err
				}
				pterm.Println(out)
			}
			return nil
		},
	}
}

func signCmd() *cobra.Command {
	var stamp string
	cmd := &cobra.Command{
		Use:   "sign <action>",
		Short: "Print the authentication headers for one action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, ok := shareasale.ParseAction(args[0])
			if !ok {
				return fmt.Errorf("unknown action %q", args[0])
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			signer, err := shareasale.NewSigner(cfg.ShareASale.APIToken, cfg.ShareASale.APISecretKey)
			if err != nil {
				return err
			}
			if stamp == "" {
				stamp = shareasale.Timestamp(time.Now())
			}
			h := signer.Sign(action, stamp)
			if asJSON(cmd) {
				return printJSON(map[string]string{
					shareasale.HeaderDate:           h.Date,
					shareasale.HeaderAuthentication: h.Signature,
				})
			}
			pterm.Printf("%s: %s\n%s: %s\n", shareasale.HeaderDate, h.Date, shareasale.HeaderAuthentication, h.Signature)
			return nil
		},
	}
	cmd.Flags().StringVar(&stamp, "timestamp", "", "HTTP-date to sign (default: now)")
	return cmd
}

func fetchCmd() *cobra.Command {
	var dateStart, dateEnd, filterSpan string
	cmd := &cobra.Command{
		Use:   "fetch <action>",
		Short: "Run one report with the configured credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, ok := shareasale.ParseAction(args[0])
			if !ok {
				return fmt.Errorf("unknown action %q", args[0])
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := shareasale.NewClient(shareasale.Credentials{
				AffiliateID:  cfg.ShareASale.AffiliateID,
				APIToken:     cfg.ShareASale.APIToken,
				APISecretKey: cfg.ShareASale.APISecretKey,
				APIVersion:   cfg.ShareASale.APIVersion,
			},
				shareasale.WithBaseURL(cfg.ShareASale.BaseURL),
				shareasale.WithLogger(logger.New(os.Stderr, cfg.Log.Level, "text")),
			)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ShareASale.Timeout())
			defer cancel()

			records, err := fetch(ctx, client, action, dateStart, dateEnd, filterSpan)
			if err != nil {
				return err
			}
			if asJSON(cmd) {
				return printJSON(records)
			}
			if len(records) == 0 {
				pterm.Info.Println("no rows")
				return nil
			}
			out, err := pterm.DefaultTable.WithHasHeader().WithData(recordTable(records)).Srender()
			if err != nil {
				return err
			}
			pterm.Println(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&dateStart, "date-start", "", "YYYY-MM-DD, required for traffic and activity")
	cmd.Flags().StringVar(&dateEnd, "date-end", "", "YYYY-MM-DD")
	cmd.Flags().StringVar(&filterSpan, "filter-span", "", "activitySummary span")
	return cmd
}

func fetch(ctx context.Context, c *shareasale.Client, action shareasale.Action, start, end, span string) ([]shareasale.Record, error) {
	switch action {
	case shareasale.ActionTraffic, shareasale.ActionActivity:
		from, to, err := dateRange(start, end)
		if err != nil {
			return nil, err
		}
		if action == shareasale.ActionTraffic {
			return c.Fetch(ctx, shareasale.TrafficInput{DateStart: from, DateEnd: to}.Query())
		}
		return c.GetActivity(ctx, shareasale.ActivityInput{DateStart: from, DateEnd: to})
	case shareasale.ActionActivitySummary:
		return c.GetActivitySummary(ctx, shareasale.ActivitySummaryInput{FilterSpan: span})
	case shareasale.ActionMerchantDataFeeds:
		return c.GetMerchantDataFeeds(ctx)
	case shareasale.ActionInvalidLinks:
		return c.GetInvalidLinks(ctx)
	case shareasale.ActionMerchantSearch:
		return c.GetMerchantSearch(ctx)
	}
	return nil, fmt.Errorf("action %s not supported", action)
}

func dateRange(start, end string) (time.Time, *time.Time, error) {
	if start == "" {
		return time.Time{}, nil, fmt.Errorf("--date-start is required")
	}
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("--date-start: %w", err)
	}
	if end == "" {
		return from, nil, nil
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("--date-end: %w", err)
	}
	return from, &to, nil
}

func catalog() []*shareasale.Schema {
	actions := shareasale.Actions()
	out := make([]*shareasale.Schema, 0, len(actions))
	for _, a := range actions {
		if s, ok := shareasale.Lookup(a); ok {
			out = append(out, s)
		}
	}
	return out
}

func schemaTable(s *shareasale.Schema) pterm.TableData {
	data := pterm.TableData{{"Kind", "Name", "Type", "Notes"}}
	for _, in := range s.Inputs {
		var notes []string
		if in.Required {
			notes = append(notes, "required")
		}
		if len(in.Values) > 0 {
			notes = append(notes, strings.Join(in.Values, "|"))
		}
		data = append(data, []string{"input", in.Name, string(in.Type), strings.Join(notes, " ")})
	}
	for _, out := range s.Outputs {
		data = append(data, []string{"output", out.Name, string(out.Type), ""})
	}
	if !s.Typed() {
		data = append(data, []string{"output", "*", string(shareasale.FieldText), "columns passed through"})
	}
	return data
}

// recordTable uses the first row's columns as the header.
func recordTable(records []shareasale.Record) pterm.TableData {
	header := records[0].Columns()
	data := pterm.TableData{header}
	for _, r := range records {
		row := make([]string, len(header))
		for i, col := range header {
			if v, ok := r.Get(col); ok {
				row[i] = fmt.Sprint(v)
			}
		}
		data = append(data, row)
	}
	return data
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config-file")
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
