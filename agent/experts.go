package agent

import (
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// newFacilitator creates the expert leading the conversation with the user.
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

			Learn about the expert's skills from the Tools and ask them questions.
			They are at your service and keep context of your previous questions.

			The user is here primarily to understand his brokerage accounts: open
			positions, realized gains, wash sale adjustments and tax figures.
			Check the accounts first to know which symbols he holds.

			Devise a plan of questions to ask each expert and come up with the
			best response to the user's request.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader creates an expert grounding answers in current market news.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		well aware of financial products, companies and markets,
		and of the latest news about them.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in trading. You can search and find anything related
			to financial institutions, companies, markets and funds. You leverage
			Google Search to ground your assertions, and you know how to relate
			the latest news to the user's request.
		`}}},
		},
	}
}

// NewAccountant creates the expert reading the user's brokerage accounts
// through the given function tools.
func NewAccountant(functions []Function) *Expert {
	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. He reads the user's brokerage account
		ledgers and can compute the relevant figures about positions, realized
		gains, wash sales and taxes.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(functions)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an accountant in charge of the user's brokerage accounts.
			You use the available tools to extract information about the accounts:
			  - the list of accounts
			  - open positions and cash of an account on a day
			  - realized gains and wash sale adjustments for a tax year
			The tools return JSON reports; read the figures from them. Other
			experts might ask you questions, pardon their approximate language
			and figure out what they meant.
		`}}},
		},
		Library: NewLibrary(functions),
	}
}
