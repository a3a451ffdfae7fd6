package aggregator

import "context"

// Sandbox is a Client for deployments without aggregator credentials. It
// accepts any public token and returns a fixed pair of linked accounts.
type Sandbox struct{}

// NewSandbox constructs a sandbox client.
func NewSandbox() *Sandbox {
	return &Sandbox{}
}

// ExchangePublicToken returns a static sandbox token.
func (s *Sandbox) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	return "sandbox-access-token", nil
}

// FetchAccounts returns the canned sandbox descriptors.
func (s *Sandbox) FetchAccounts(ctx context.Context, accessToken string) ([]LinkedAccount, error) {
	checking := 2850.00
	savings := 4375.00
	return []LinkedAccount{
		{
			AccountID:       "sandbox-checking",
			Name:            "Primary Checking",
			Type:            "depository",
			Subtype:         "checking",
			Balance:         &checking,
			InstitutionName: "Demo Bank",
			InstitutionID:   "ins_demo",
			Mask:            "1234",
		},
		{
			AccountID:       "sandbox-savings",
			Name:            "High Yield Savings",
			Type:            "depository",
			Subtype:         "savings",
			Balance:         &savings,
			InstitutionName: "Demo Bank",
			InstitutionID:   "ins_demo",
			Mask:            "5678",
		},
	}, nil
}
