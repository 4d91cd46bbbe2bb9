package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/passgen"
)

// GenPass prints a random password. The length comes from the first
// argument or, if absent, from configuration.
func (a *App) GenPass(_ context.Context, args []string) error {
	length := a.config.PasswordLength
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: bad length %q", common.ErrorValidation, args[0])
		}
		length = n
	}

	pw, err := passgen.Generate(length)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, pw)
	return nil
}
