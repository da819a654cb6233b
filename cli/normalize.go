// ABOUTME: Normalization CLI command
// ABOUTME: Prints the canonical form of phone numbers and postal addresses
package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

// NormalizeCommand handles "normalize phone|address <value>...".
func NormalizeCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("usage: contactmerge normalize phone|address <value>...")
	}

	engine := env.config().Engine()
	out := env.out()
	values := fs.Args()[1:]

	switch fs.Arg(0) {
	case "phone":
		invalid := 0
		for _, v := range values {
			normalized, ok := engine.NormalizePhone(v)
			if !ok {
				invalid++
				_, _ = fmt.Fprintf(out, "✗ %s: not a phone number\n", v)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s → %s\n", v, normalized)
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d values are not phone numbers", invalid, len(values))
		}

	case "address":
		normalized := engine.NormalizeAddress(strings.Join(values, " "))
		_, _ = fmt.Fprintln(out, normalized)

	default:
		return fmt.Errorf("unknown normalize kind: %s (want phone or address)", fs.Arg(0))
	}

	return nil
}
