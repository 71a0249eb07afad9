package common

// DefaultAccount is the account name used when a request does not name one.
const DefaultAccount = "default"

// GetAccountFromArgs extracts the account name from request arguments,
// falling back to DefaultAccount when none is provided.
func GetAccountFromArgs(args map[string]any) string {
	if account, ok := args["account"].(string); ok && account != "" {
		return account
	}
	return DefaultAccount
}
