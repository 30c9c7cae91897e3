package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"winery/internal/appstate"
	"winery/internal/economy"
	"winery/internal/game"
	"winery/internal/valuation"
	"winery/internal/wine"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptFloat(label string, min float64) (float64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil {
			printWarn("Enter a valid number.")
			continue
		}
		if v <= min {
			printWarn(fmt.Sprintf("Value must be > %.4f", min))
			continue
		}
		return v, nil
	}
}

func renderEconomy(v game.EconomyView) {
	accent.Printf("\n== ECONOMY ==\n")
	fmt.Printf("Date:        %s\n", v.Date)
	fmt.Printf("Phase:       %s\n", colorizePhase(v.Phase))
	m := v.Multipliers
	fmt.Printf("Sales:       freq x%.2f  qty x%.2f  price tol x%.2f\n", m.SaleFrequency, m.OrderQuantity, m.PriceTolerance)
	fmt.Printf("Orders:      multi-order penalty x%.2f\n", m.MultipleOrderPenalty)
	fmt.Printf("Loans:       interest x%.2f\n", m.LoanInterest)
	fmt.Printf("Valuation:   expectation x%.2f\n", m.ValuationExpectation)
	fmt.Println()
}

func renderWeekReport(r game.WeekReport) {
	accent.Printf("\n== %s ==\n", strings.ToUpper(r.Date.String()))
	if r.SeasonBoundary {
		if r.PreviousPhase != r.Phase {
			printWarn(fmt.Sprintf("New season: economy moved from %s to %s", r.PreviousPhase, r.Phase))
		} else {
			printInfo(fmt.Sprintf("New season: economy stays in %s", r.Phase))
		}
	}
	renderCompanies(r.Companies)
	for _, w := range r.Warnings {
		printWarn("! " + w.Message)
	}
	if n := len(r.Decisions); n > 0 {
		printWarn(fmt.Sprintf("%d decision(s) waiting; run `vin decisions`", n))
	}
}

func renderCompanies(list []game.CompanySummary) {
	if len(list) == 0 {
		printInfo("No companies yet.")
		return
	}
	fmt.Printf("%-36s  %-24s  %14s  %7s\n", "ID", "NAME", "PRICE", "CREDIT")
	for _, c := range list {
		price := "-"
		if c.Issued {
			price = formatMicros(c.PriceMicros)
		}
		fmt.Printf("%-36s  %-24s  %14s  %7s\n", c.ID, truncate(c.Name, 24), price, colorizeRating(c.CreditRating))
	}
}

func renderCompany(v game.CompanyView) {
	accent.Printf("\n== %s ==\n", strings.ToUpper(v.Name))
	fmt.Printf("ID:          %s\n", v.ID)
	fmt.Printf("Cash:        %s\n", colorizeMicros(v.CashMicros))
	fmt.Printf("Fixed assets:%s\n", formatMicros(v.FixedAssets))
	fmt.Printf("Debt:        %s\n", formatMicros(v.DebtMicros))
	fmt.Printf("Prestige:    %.1f\n", v.Prestige)
	if v.Issued {
		book := float64(v.BookMicros)
		diff := 0.0
		if book > 0 {
			diff = (float64(v.PriceMicros) - book) / book * 100
		}
		fmt.Printf("Shares:      %s\n", comma(v.SharesUnits/game.ShareScale))
		fmt.Printf("Price:       %s (%s vs book %s)\n", formatMicros(v.PriceMicros), colorizePercent(diff), formatMicros(v.BookMicros))
	} else {
		fmt.Printf("Shares:      not issued\n")
	}
	cr := v.CreditRating
	fmt.Printf("Credit:      %s  (assets %.2f  payments %.2f  stability %.2f  penalty -%.2f)\n",
		colorizeRating(cr.Final), cr.AssetHealth, cr.PaymentHistory, cr.CompanyStability, cr.NegativeBalancePenalty)
	if v.WeeksNegative > 0 {
		printError(fmt.Sprintf("Negative balance for %d week(s)", v.WeeksNegative))
	}
	fmt.Printf("Window:      %d/%d weeks\n", v.WindowWeeks, valuation.WindowWeeks)

	if adj := v.LastAdjustment; adj != nil {
		fmt.Println()
		accent.Println("Last adjustment")
		fmt.Printf("  %-20s %12s %12s %10s\n", "METRIC", "ACTUAL", "EXPECTED", "EUR")
		for _, m := range valuation.Metrics {
			fmt.Printf("  %-20s %12.4f %12.4f %10s\n", m, v.Actual[m], v.Expected[m], signedEuros(adj.Contributions[m]))
		}
		fmt.Printf("  raw %s x anchor %.3f", signedEuros(adj.RawDelta), adj.AnchorFactor)
		if adj.Floored {
			fmt.Printf("  %s", warn.Sprint("(floored)"))
		}
		fmt.Println()
	}

	if len(v.Loans) > 0 {
		fmt.Println()
		accent.Println("Loans")
		fmt.Printf("  %-8s %12s %12s %7s %6s %7s\n", "ID", "PRINCIPAL", "OUTSTANDING", "RATE", "TERM", "STATUS")
		for _, l := range v.Loans {
			fmt.Printf("  %-8s %12s %12s %6.2f%% %6d %7s\n", truncate(l.ID, 8), formatEuros(l.Principal), formatEuros(l.Outstanding), l.AnnualRate*100, l.TermWeeks, l.Status)
		}
		h := v.PaymentHistory
		fmt.Printf("  on time %d  missed %d  paid off %d\n", h.OnTime, h.Missed, h.PaidOff)
	}
	fmt.Println()
}

func renderLoanQuote(q game.LoanQuote) {
	accent.Printf("\n== LOAN QUOTE (%s) ==\n", q.Phase)
	fmt.Printf("Amount:      %s\n", formatEuros(q.Amount))
	fmt.Printf("Term:        %d weeks\n", q.TermWeeks)
	fmt.Printf("Rate:        %.2f%% a year\n", q.AnnualRate*100)
	fmt.Printf("Installment: %s/week\n", formatEuros(q.Installment))
	fmt.Println()
}

func renderWarnings(list []appstate.Warning) {
	if len(list) == 0 {
		printSuccess("No open warnings.")
		return
	}
	for _, w := range list {
		fmt.Printf("%s  %-16s  %s\n", w.ID, w.Kind, w.Message)
	}
}

func renderDecisions(list []appstate.PendingDecision) {
	if len(list) == 0 {
		printSuccess("No pending decisions.")
		return
	}
	for _, p := range list {
		fmt.Printf("%s  %s\n", p.ID, describeDecision(p.Decision.Decision))
	}
}

func describeDecision(d appstate.Decision) string {
	switch v := d.(type) {
	case appstate.ForcedLoanRestructure:
		return fmt.Sprintf("restructure loan %s over %d weeks", truncate(v.LoanID, 8), v.TermWeeks)
	case appstate.LoanOffer:
		return fmt.Sprintf("loan offer of %s over %d weeks", formatEuros(v.Amount), v.TermWeeks)
	case appstate.ShareIssuance:
		return fmt.Sprintf("issue %s shares", comma(roundShares(v.Shares)))
	default:
		return "unknown decision"
	}
}

func renderBalance(c wine.Characteristics, res wine.BalanceResult) {
	accent.Printf("\n== BALANCE %.3f ==\n", res.Score)
	chars := append([]wine.Characteristic(nil), wine.AllCharacteristics...)
	sort.Slice(chars, func(i, j int) bool { return res.Penalties[chars[i]] > res.Penalties[chars[j]] })
	for _, ch := range chars {
		fmt.Printf("  %-10s %.3f  penalty %.3f\n", ch, c.Get(ch), res.Penalties[ch])
	}
	fmt.Println()
}

func colorizePhase(p economy.Phase) string {
	switch p {
	case economy.Crash, economy.Recession:
		return danger.Sprint(p)
	case economy.Expansion, economy.Boom:
		return success.Sprint(p)
	default:
		return neutral.Sprint(p)
	}
}

func colorizeRating(v float64) string {
	text := fmt.Sprintf("%.0f%%", v*100)
	switch {
	case v >= 0.7:
		return success.Sprint(text)
	case v < game.LowCreditRating:
		return danger.Sprint(text)
	default:
		return warn.Sprint(text)
	}
}

func colorizeMicros(v int64) string {
	text := formatMicros(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizePercent(v float64) string {
	text := fmt.Sprintf("%+.2f%%", v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func formatEuros(v float64) string {
	return formatMicros(game.EurosToMicros(v))
}

func signedEuros(v float64) string {
	if v > 0 {
		return "+" + formatEuros(v)
	}
	return formatEuros(v)
}

func formatMicros(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := v / game.MicrosPerEuro
	frac := (v % game.MicrosPerEuro) / 10_000
	return fmt.Sprintf("%s€%s.%02d", sign, comma(whole), frac)
}

func comma(v int64) string {
	if v < 0 {
		return "-" + comma(-v)
	}
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func roundShares(v float64) int64 {
	return int64(math.Round(v))
}
