// Command gensecret prints a random value for JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/auth"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("gensecret", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asEnv := fs.Bool("env", false, "Print as a JWT_SECRET=... line")

	if err := fs.Parse(args); err != nil {
		return err
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		return err
	}

	if *asEnv {
		fmt.Fprintf(stdout, "JWT_SECRET=%s\n", secret)
		return nil
	}
	fmt.Fprintln(stdout, secret)
	return nil
}
