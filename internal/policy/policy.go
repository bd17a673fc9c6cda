package policy

import (
	"strings"

	clierr "github.com/ggonzalez94/defi-router/internal/errors"
)

// CheckCommandAllowed enforces the --enable-commands allow-list. An empty
// allow-list permits everything. An entry matches its exact command path or
// any subcommand under it, so "route" enables both "route find" and
// "route execute".
func CheckCommandAllowed(allowlist []string, commandPath string) error {
	path := canonical(commandPath)
	for _, entry := range allowlist {
		allowed := canonical(entry)
		if path == allowed || strings.HasPrefix(path, allowed+" ") {
			return nil
		}
	}
	if len(allowlist) > 0 {
		return clierr.New(clierr.CodeBlocked, "command blocked by --enable-commands policy")
	}
	return nil
}

func canonical(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}
