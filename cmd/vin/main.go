package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"winery/internal/activity"
	cl "winery/internal/cli"
	"winery/internal/config"
	"winery/internal/db"
	"winery/internal/game"
	"winery/internal/wine"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "vin",
		Short:        "Winery simulation CLI",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newEconomyCmd(&apiBase),
		newAdvanceCmd(&apiBase),
		newCompanyCmd(&apiBase),
		newLoanCmd(&apiBase),
		newWarningsCmd(&apiBase),
		newDecisionsCmd(&apiBase),
		newWineCmd(),
		newWorkUnitsCmd(),
		newSchemaCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newEconomyCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "economy",
		Short: "Show the calendar and economy phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Economy(ctx)
			if err != nil {
				return err
			}
			renderEconomy(out)
			return nil
		},
	}
}

func newAdvanceCmd(apiBase *string) *cobra.Command {
	var weeks int
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Advance the simulation by one or more weeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if weeks < 1 {
				return fmt.Errorf("--weeks must be >= 1")
			}
			client := newClient(apiBase)
			for i := 0; i < weeks; i++ {
				ctx, cancel := requestContext(cmd)
				out, err := client.AdvanceWeek(ctx)
				cancel()
				if err != nil {
					return err
				}
				renderWeekReport(out)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&weeks, "weeks", 1, "number of weeks to advance")
	return cmd
}

func newCompanyCmd(apiBase *string) *cobra.Command {
	company := &cobra.Command{
		Use:     "company",
		Short:   "Company commands",
		Aliases: []string{"co"},
	}
	company.AddCommand(
		newCompanyCreateCmd(apiBase),
		newCompanyUseCmd(),
		newCompanyListCmd(apiBase),
		newCompanyShowCmd(apiBase),
		newCompanyIssueCmd(apiBase),
		newCompanyRecordCmd(apiBase),
	)
	return company
}

func newCompanyCreateCmd(apiBase *string) *cobra.Command {
	var cash float64
	var noUse bool
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Found a new winery",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if strings.TrimSpace(name) == "" {
				var err error
				if name, err = promptRequired("Winery name"); err != nil {
					return err
				}
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).CreateCompany(ctx, game.CreateCompanyInput{Name: name, Cash: cash})
			if err != nil {
				return err
			}
			if !noUse {
				if err := cl.SaveProfile(cl.Profile{CompanyID: out.ID}); err != nil {
					return err
				}
			}
			printSuccess(fmt.Sprintf("Company created: %s (%s)", out.Name, out.ID))
			return nil
		},
	}
	cmd.Flags().Float64Var(&cash, "cash", 0, "starting cash in euros (default 250,000)")
	cmd.Flags().BoolVar(&noUse, "no-use", false, "do not make the new company current")
	return cmd
}

func newCompanyUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Set the current company for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid company id: %w", err)
			}
			if err := cl.SaveProfile(cl.Profile{CompanyID: id}); err != nil {
				return err
			}
			printSuccess("Current company set to " + id.String())
			return nil
		},
	}
}

func newCompanyListCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).ListCompanies(ctx)
			if err != nil {
				return err
			}
			renderCompanies(out)
			return nil
		},
	}
}

func newCompanyShowCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show valuation, credit and loans of a company",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := companyFromArgs(args, 0)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Company(ctx, id)
			if err != nil {
				return err
			}
			renderCompany(out)
			return nil
		},
	}
}

func newCompanyIssueCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "issue [shares]",
		Short: "Issue shares at book value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cl.CurrentCompany()
			if err != nil {
				return err
			}
			shares, err := floatFromArgOrPrompt(args, 0, "Shares to issue")
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).IssueShares(ctx, id, shares)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Issued %s shares at %s", comma(roundShares(shares)), formatMicros(out.PriceMicros)))
			return nil
		},
	}
}

func newCompanyRecordCmd(apiBase *string) *cobra.Command {
	var in game.WeeklyInput
	var fixedAssets, prestige float64
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record revenue, expenses and dividends for the open week",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cl.CurrentCompany()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fixed-assets") {
				in.FixedAssets = &fixedAssets
			}
			if cmd.Flags().Changed("prestige") {
				in.Prestige = &prestige
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).RecordWeek(ctx, id, in)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Recorded. Cash now %s", formatMicros(out.CashMicros)))
			return nil
		},
	}
	cmd.Flags().Float64Var(&in.Revenue, "revenue", 0, "revenue in euros")
	cmd.Flags().Float64Var(&in.Expenses, "expenses", 0, "expenses in euros")
	cmd.Flags().Float64Var(&in.Dividends, "dividends", 0, "dividends paid in euros")
	cmd.Flags().Float64Var(&fixedAssets, "fixed-assets", 0, "set fixed asset value in euros")
	cmd.Flags().Float64Var(&prestige, "prestige", 0, "set prestige")
	return cmd
}

func newLoanCmd(apiBase *string) *cobra.Command {
	loan := &cobra.Command{
		Use:     "loan",
		Short:   "Loan commands for the current company",
		Aliases: []string{"loans"},
	}

	var term int
	quote := &cobra.Command{
		Use:   "quote <amount>",
		Short: "Price a loan at the current phase and rating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, amount, err := companyAndAmount(args)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).QuoteLoan(ctx, id, game.LoanInput{Amount: amount, TermWeeks: term})
			if err != nil {
				return err
			}
			renderLoanQuote(out)
			return nil
		},
	}
	quote.Flags().IntVar(&term, "term", 0, "term in weeks (default 96)")

	var takeTerm int
	take := &cobra.Command{
		Use:   "take <amount>",
		Short: "Take a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, amount, err := companyAndAmount(args)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).TakeLoan(ctx, id, game.LoanInput{Amount: amount, TermWeeks: takeTerm})
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Loan %s: %s over %d weeks at %.2f%%, installment %s/week",
				truncate(out.ID, 8), formatEuros(out.Principal), out.TermWeeks, out.AnnualRate*100, formatEuros(out.Installment)))
			return nil
		},
	}
	take.Flags().IntVar(&takeTerm, "term", 0, "term in weeks (default 96)")

	pay := &cobra.Command{
		Use:   "pay <amount>",
		Short: "Repay open loans, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, amount, err := companyAndAmount(args)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).RepayLoan(ctx, id, amount)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Repaid %s. Debt %s, cash %s", formatEuros(out.Repaid), formatEuros(out.OutstandingDebt), formatEuros(out.Cash)))
			return nil
		},
	}

	loan.AddCommand(quote, take, pay)
	return loan
}

func newWarningsCmd(apiBase *string) *cobra.Command {
	warnings := &cobra.Command{
		Use:   "warnings",
		Short: "List unacknowledged warnings for the current company",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cl.CurrentCompany()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Warnings(ctx, id)
			if err != nil {
				return err
			}
			renderWarnings(out)
			return nil
		},
	}
	warnings.AddCommand(&cobra.Command{
		Use:   "ack <warning-id>",
		Short: "Acknowledge a warning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cl.CurrentCompany()
			if err != nil {
				return err
			}
			warningID, err := uuid.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid warning id: %w", err)
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			if err := newClient(apiBase).AcknowledgeWarning(ctx, id, warningID); err != nil {
				return err
			}
			printSuccess("Warning acknowledged.")
			return nil
		},
	})
	return warnings
}

func newDecisionsCmd(apiBase *string) *cobra.Command {
	decisions := &cobra.Command{
		Use:   "decisions",
		Short: "List pending decisions for the current company",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cl.CurrentCompany()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Decisions(ctx, id)
			if err != nil {
				return err
			}
			renderDecisions(out)
			return nil
		},
	}
	decisions.AddCommand(&cobra.Command{
		Use:   "accept <decision-id>",
		Short: "Accept a pending decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cl.CurrentCompany()
			if err != nil {
				return err
			}
			decisionID, err := uuid.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid decision id: %w", err)
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).ResolveDecision(ctx, id, decisionID)
			if err != nil {
				return err
			}
			printSuccess("Decision applied.")
			renderCompany(out)
			return nil
		},
	})
	return decisions
}

func newWineCmd() *cobra.Command {
	wineCmd := &cobra.Command{
		Use:   "wine",
		Short: "Score and blend wine characteristics locally",
	}

	var c wine.Characteristics
	balance := &cobra.Command{
		Use:   "balance",
		Short: "Score a set of characteristics against the default ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.Validate(); err != nil {
				return err
			}
			renderBalance(c, wine.Balance(c, wine.DefaultRanges()))
			return nil
		},
	}
	balance.Flags().Float64Var(&c.Acidity, "acidity", 0.5, "acidity [0,1]")
	balance.Flags().Float64Var(&c.Aroma, "aroma", 0.5, "aroma [0,1]")
	balance.Flags().Float64Var(&c.Body, "body", 0.6, "body [0,1]")
	balance.Flags().Float64Var(&c.Spice, "spice", 0.5, "spice [0,1]")
	balance.Flags().Float64Var(&c.Sweetness, "sweetness", 0.5, "sweetness [0,1]")
	balance.Flags().Float64Var(&c.Tannins, "tannins", 0.5, "tannins [0,1]")

	blend := &cobra.Command{
		Use:   "blend <parts.json>",
		Short: "Blend batches from a JSON file of {batch, volume} parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var parts []wine.BlendPart
			if err := json.Unmarshal(raw, &parts); err != nil {
				return fmt.Errorf("decode parts: %w", err)
			}
			for _, p := range parts {
				if _, err := wine.NewBatch(p.Batch.ID, p.Batch.Grape, p.Batch.Volume, p.Batch.Characteristics); err != nil {
					return fmt.Errorf("batch %s: %w", p.Batch.ID, err)
				}
			}
			out, volume, err := wine.Blend(parts)
			if err != nil {
				return err
			}
			printInfo(fmt.Sprintf("Blended volume: %.1f", volume))
			renderBalance(out, wine.Balance(out, wine.DefaultRanges()))
			return nil
		},
	}

	wineCmd.AddCommand(balance, blend)
	return wineCmd
}

func newWorkUnitsCmd() *cobra.Command {
	var density, capacity float64
	var modifiers []float64
	cmd := &cobra.Command{
		Use:   "work-units <category> <amount>",
		Short: "Size an activity in work units",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := activity.ParseCategory(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			units, err := activity.WorkUnits(activity.WorkInput{
				Category:  category,
				Amount:    amount,
				Density:   density,
				Modifiers: modifiers,
			})
			if err != nil {
				return err
			}
			accent.Printf("%s %s %s: ", category, strconv.FormatFloat(amount, 'f', -1, 64), activity.Unit(category))
			fmt.Printf("%d work units\n", units)
			if capacity > 0 {
				weeks, err := activity.WeeksToComplete(units, capacity)
				if err != nil {
					return err
				}
				fmt.Printf("About %d week(s) at %.1f units/week\n", weeks, capacity)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&density, "density", 0, "vine density per hectare (planting, harvesting)")
	cmd.Flags().Float64SliceVar(&modifiers, "modifier", nil, "fractional modifiers, e.g. 0.1,-0.2")
	cmd.Flags().Float64Var(&capacity, "capacity", 0, "staff work units per week")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(db.Schema())
			return nil
		},
	}
}

func companyFromArgs(args []string, idx int) (uuid.UUID, error) {
	if len(args) > idx {
		id, err := uuid.Parse(strings.TrimSpace(args[idx]))
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid company id: %w", err)
		}
		return id, nil
	}
	return cl.CurrentCompany()
}

func companyAndAmount(args []string) (uuid.UUID, float64, error) {
	id, err := cl.CurrentCompany()
	if err != nil {
		return uuid.Nil, 0, err
	}
	amount, err := floatFromArgOrPrompt(args, 0, "Amount")
	return id, amount, err
}

func floatFromArgOrPrompt(args []string, idx int, label string) (float64, error) {
	if len(args) > idx {
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(args[idx]), ",", ""), 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("invalid %s", strings.ToLower(label))
		}
		return v, nil
	}
	return promptFloat(label, 0)
}
