package cli

import (
	"context"
	"fmt"

	"github.com/awnumar/memguard"
)

// Breach asks for a password and reports whether it is known to be leaked.
func (a *App) Breach(ctx context.Context) error {
	pw, err := GetPassword(a.reader, "Password to check", a.out)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(pw)

	res, err := a.breach.Check(ctx, string(pw))
	if err != nil {
		return err
	}

	if res.Leaked {
		fmt.Fprintf(a.out, "Password was found in %d breaches. Do not use it.\n", res.TimesFound)
		return nil
	}
	fmt.Fprintln(a.out, "Password was not found in known breaches.")
	return nil
}
