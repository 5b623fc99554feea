package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rhfolio/rhfolio"
	"github.com/rhfolio/rhfolio/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// newFacilitator creates the expert in charge of the conversation.
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill from the Tools and ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is here primarily to understand his brokerage portfolio: balances, stock and
			option positions, option strategies (covered calls, cash-secured puts, spreads),
			recent trades and realized gains. The Analyst has the freshly fetched report, use it
			first so your answers match his actual holdings; turn to the Researcher for market
			context and news about the underlying symbols.

			Devise a plan of questions to ask each expert and come up with the best response
			to the user's request.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewResearcher creates the expert for market context. It grounds its answers
// in search instead of the portfolio.
func NewResearcher() *Expert {
	return &Expert{
		Name: "Researcher",
		Description: `This is an expert market researcher,
		very well aware of financial products, companies and markets,
		and of the latest news about them.
		Ask the Researcher whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in markets, you can search and find about anything related to
			financial institutions, companies, markets, funds etc. You leverage Google Search
			to ground your assertions in a solid truth.
			You can get the latest news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// ReportLoader supplies the current run's report. The agent calls it lazily,
// fetching the portfolio is slow and not every conversation needs it.
type ReportLoader func() (*rhfolio.Report, error)

// NewAnalyst creates the expert that reads the portfolio report.
func NewAnalyst(load ReportLoader) *Expert {
	lib := []Function{listTables(load), readTable(load)}

	return &Expert{
		Name: "Analyst",
		Description: `This is the portfolio Analyst. He has the user's freshly fetched
		brokerage report: account balances, stock positions with allocations, option
		positions with their strategy labels, option orders, weekly premium income,
		recent trades and realized gains.
		Ask the Analyst everything about what the user actually holds.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an analyst in charge of the user's brokerage portfolio report.
				You are part of a team of experts, yours is everything about the user's
				actual holdings. They might ask approximative questions, figure out what
				they meant.

				Use ListTables to see what the report contains, then ReadTable to get the
				figures. Strategy labels (Covered Call, Cash-Secured Put, Vertical Spread,
				Naked Call, Naked Put) are already assigned in the Option Positions table.
				Quote the report's numbers verbatim, never invent figures.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

func listTables(load ReportLoader) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "ListTables",
			Description: `ListTables lists the tables of the current portfolio report, with
			their row counts, and the warning counters of the run (dropped records,
			unmatched sells).`,
			Parameters: &genai.Schema{Type: genai.TypeObject},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "One line per table with its name and row count, then the warning counters.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			report, err := load()
			if err != nil {
				return errorResponse(id, "ListTables", err)
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Report generated on %s.\n", report.GeneratedOn)
			for _, t := range report.Tables {
				fmt.Fprintf(&b, "- %q, %d rows\n", t.Name, len(t.Rows))
			}
			fmt.Fprintf(&b, "Dropped records: %d, unmatched sells: %d\n", report.Dropped, report.UnmatchedSells)
			return &genai.FunctionResponse{
				ID:       id,
				Name:     "ListTables",
				Response: map[string]any{"output": b.String()},
			}
		},
	}
}

func readTable(load ReportLoader) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "ReadTable",
			Description: `ReadTable returns one table of the current portfolio report as a
			markdown table, every cell formatted the way the report displays it.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"table": {
						Type:        genai.TypeString,
						Description: `The exact table name as returned by ListTables, e.g. "Account Balances".`,
					},
				},
				Required: []string{"table"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "The table rendered as markdown.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			name, ok := args["table"].(string)
			if !ok {
				return errorResponse(id, "ReadTable", fmt.Errorf("argument 'table' is not a string but %T", args["table"]))
			}
			report, err := load()
			if err != nil {
				return errorResponse(id, "ReadTable", err)
			}
			table, ok := report.Table(name)
			if !ok {
				return errorResponse(id, "ReadTable", fmt.Errorf("no table %q, call ListTables for the names", name))
			}
			return &genai.FunctionResponse{
				ID:       id,
				Name:     "ReadTable",
				Response: map[string]any{"output": renderer.TableMarkdown(*table)},
			}
		},
	}
}

func errorResponse(id, name string, err error) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       id,
		Name:     name,
		Response: map[string]any{"error": err.Error()},
	}
}
