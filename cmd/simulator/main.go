package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "race":
		raceCmd(apiURL, args)
	case "write":
		writeCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Writing Simulator - Development tool for exercising the token ledger

USAGE:
  simulator <command> [options]

COMMANDS:
  race      Sign up a fresh user and fire concurrent submissions at it
  write     Log in (or sign up) and submit one prompt
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # 10 parallel submissions of 150 tokens against a fresh 1000 token balance
  simulator race

  # 25 parallel submissions of 300 tokens
  simulator race --workers=25 --tokens=300

  # Submit one prompt as an existing user
  simulator write --email=me@example.com --password=secret123 --prompt="Once upon a time"`)
}

func raceCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("race", flag.ExitOnError)
	workers := fs.Int("workers", 10, "Number of concurrent submissions")
	tokens := fs.Int("tokens", 150, "Tokens requested per submission")
	fs.Parse(args)

	if *workers < 1 {
		fmt.Println("Error: --workers must be at least 1")
		os.Exit(1)
	}

	client, err := NewAPIClient(apiURL)
	exitOnError(err)

	email := fmt.Sprintf("sim_%s@example.com", uuid.NewString()[:8])
	exitOnError(client.Signup(email, "simulator123"))

	before, err := client.Writing()
	exitOnError(err)
	fmt.Printf("Signed up %s with %d tokens\n", email, before.User.Tokens)

	type outcome struct {
		result *SubmitResponse
		err    error
	}
	outcomes := make([]outcome, *workers)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := client.Submit(fmt.Sprintf("Simulated prompt #%d", i+1), *tokens)
			outcomes[i] = outcome{result: res, err: err}
		}(i)
	}
	wg.Wait()

	accepted, refused, failed := 0, 0, 0
	for i, o := range outcomes {
		var formErr *FormError
		switch {
		case o.err == nil:
			accepted++
			fmt.Printf("  #%-3d accepted, %d tokens left\n", i+1, o.result.Tokens)
		case errors.As(o.err, &formErr):
			refused++
			fmt.Printf("  #%-3d refused: %v\n", i+1, formErr.Fields)
		default:
			failed++
			fmt.Printf("  #%-3d failed: %v\n", i+1, o.err)
		}
	}

	after, err := client.Writing()
	exitOnError(err)
	expected := before.User.Tokens - accepted*(*tokens)

	fmt.Printf("\n%d accepted, %d refused, %d failed in %s\n", accepted, refused, failed, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Balance: %d -> %d (expected %d)\n", before.User.Tokens, after.User.Tokens, expected)

	if after.User.Tokens < 0 || after.User.Tokens != expected {
		fmt.Println("Ledger mismatch!")
		os.Exit(1)
	}
}

func writeCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Account password (required)")
	prompt := fs.String("prompt", "Write a tagline for a coffee shop", "Prompt to submit")
	tokens := fs.Int("tokens", 150, "Tokens to spend")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: --email and --password are required")
		os.Exit(1)
	}

	client, err := NewAPIClient(apiURL)
	exitOnError(err)

	if err := client.Login(*email, *password); err != nil {
		var formErr *FormError
		if !errors.As(err, &formErr) {
			exitOnError(err)
		}
		fmt.Println("Login failed, signing up instead")
		exitOnError(client.Signup(*email, *password))
	}

	res, err := client.Submit(*prompt, *tokens)
	exitOnError(err)

	fmt.Printf("%s%s\n\n%d tokens left\n", *prompt, res.Completion.Answer, res.Tokens)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
