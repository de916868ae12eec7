package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/accounts/internal/api"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUser(w io.Writer, u *api.UserView) error {
	return printJSON(w, u)
}

func printToken(w io.Writer, token string) {
	fmt.Fprintln(w, token)
}
