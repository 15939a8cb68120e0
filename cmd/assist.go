package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"google.golang.org/genai"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/agent"
	"github.com/etnz/brokerage/date"
)

type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }
func (*assistCmd) Usage() string {
	return `assist [initial prompt]

  Start an interactive session with the AI assistant. The assistant can
  read the account ledgers and search for market news.
`
}

func (*assistCmd) SetFlags(*flag.FlagSet) {}

func (*assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	initialPrompt := ""
	if f.NArg() > 0 {
		initialPrompt = strings.Join(f.Args(), " ")
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return fail(err)
	}

	trader := agent.NewTrader()
	accountant := agent.NewAccountant(ledgerFunctions())
	a := agent.New(os.Stdout, os.Stdin, trader, accountant)

	if err := a.Run(ctx, client, initialPrompt); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// ledgerFunctions exposes the account reports as tools for the assistant.
func ledgerFunctions() []agent.Function {
	accountParam := &genai.Schema{
		Type:        genai.TypeString,
		Description: `The account name, "combined" for all accounts merged. The default is the first account.`,
	}
	return []agent.Function{
		&agent.Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Accounts",
				Description: "Accounts lists the user's brokerage account names.",
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "One account name per line.",
				},
			},
			Run: func(_ context.Context, id string, _ map[string]any) *genai.FunctionResponse {
				accounts, err := brokerage.Accounts(*dataDir)
				if err != nil {
					return agent.Errorf(id, "Accounts", "%v", err)
				}
				return agent.Output(id, "Accounts", strings.Join(accounts, "\n"))
			},
		},
		&agent.Func{
			Decl: &genai.FunctionDeclaration{
				Name: "Report",
				Description: `Report shows the state of an account on a day: cash,
				open lots with cost basis, realized gains and deposits.`,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"account": accountParam,
						"date": {
							Type:        genai.TypeString,
							Description: "The report date as YYYY-MM-DD. Today is the default.",
						},
					},
				},
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A JSON report of the account state.",
				},
			},
			Run: func(_ context.Context, id string, args map[string]any) *genai.FunctionResponse {
				account, on, err := assistArgs(args)
				if err != nil {
					return agent.Errorf(id, "Report", "%v", err)
				}
				p, err := BuildPortfolio(account, on)
				if err != nil {
					return agent.Errorf(id, "Report", "%v", err)
				}
				return agent.Output(id, "Report", p.Report().String())
			},
		},
		&agent.Func{
			Decl: &genai.FunctionDeclaration{
				Name: "Taxes",
				Description: `Taxes shows the realized gains of an account for a tax
				year: completed lots with wash sale adjustments, dividends and interest.`,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"account": accountParam,
						"year": {
							Type:        genai.TypeString,
							Description: "The tax year as YYYY. The current year is the default.",
						},
					},
				},
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A JSON report of the tax year.",
				},
			},
			Run: func(_ context.Context, id string, args map[string]any) *genai.FunctionResponse {
				account, err := DefaultAccount(stringArg(args, "account"))
				if err != nil {
					return agent.Errorf(id, "Taxes", "%v", err)
				}
				year := date.Today().Year()
				if str := stringArg(args, "year"); str != "" {
					if year, err = strconv.Atoi(str); err != nil {
						return agent.Errorf(id, "Taxes", "invalid year %q", str)
					}
				}
				on := date.YearEnd(year)
				if on.After(date.Today()) {
					on = date.Today()
				}
				p, err := BuildPortfolio(account, on)
				if err != nil {
					return agent.Errorf(id, "Taxes", "%v", err)
				}
				return agent.Output(id, "Taxes", p.TaxReport(year).String())
			},
		},
	}
}

func stringArg(args map[string]any, name string) string {
	str, _ := args[name].(string)
	return str
}

func assistArgs(args map[string]any) (string, date.Date, error) {
	account, err := DefaultAccount(stringArg(args, "account"))
	if err != nil {
		return "", date.Date{}, err
	}
	on := date.Today()
	if str := stringArg(args, "date"); str != "" {
		if on, err = date.Parse(str); err != nil {
			return "", date.Date{}, fmt.Errorf("invalid date %q: %w", str, err)
		}
	}
	return account, on, nil
}
