package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quorum-cli",
		Short: "Quorum CLI tool",
		Long:  `A command line interface for interacting with the Quorum approval API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Quorum API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	var (
		kind              string
		amount            string
		currency          string
		fromAccount       string
		toAccount         string
		description       string
		requiredApprovals int
		rejectionTerminal bool
		revoteAllowed     bool
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an approval transaction",
		Run: func(cmd *cobra.Command, args []string) {
			createTransaction(map[string]any{
				"kind":                  kind,
				"amount":                amount,
				"currency":              currency,
				"from_account_id":       fromAccount,
				"to_account_id":         toAccount,
				"description":           description,
				"required_approvals":    requiredApprovals,
				"rejection_is_terminal": rejectionTerminal,
				"revote_allowed":        revoteAllowed,
			})
		},
	}
	createCmd.Flags().StringVar(&kind, "kind", "transfer", "Transaction kind (transfer, swap, withdrawal, deposit)")
	createCmd.Flags().StringVar(&amount, "amount", "0", "Transaction amount")
	createCmd.Flags().StringVar(&currency, "currency", "USD", "Transaction currency")
	createCmd.Flags().StringVar(&fromAccount, "from", "", "Source account ID")
	createCmd.Flags().StringVar(&toAccount, "to", "", "Destination account ID")
	createCmd.Flags().StringVar(&description, "description", "", "Description")
	createCmd.Flags().IntVar(&requiredApprovals, "required-approvals", 1, "Approvals needed to approve")
	createCmd.Flags().BoolVar(&rejectionTerminal, "rejection-terminal", false, "First rejection rejects the transaction")
	createCmd.Flags().BoolVar(&revoteAllowed, "revote", false, "Allow voters to change their vote")
	rootCmd.AddCommand(createCmd)

	getCmd := &cobra.Command{
		Use:   "get <transaction-id>",
		Short: "Get a transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/transactions/" + args[0])
		},
	}
	rootCmd.AddCommand(getCmd)

	votesCmd := &cobra.Command{
		Use:   "votes <transaction-id>",
		Short: "Show the vote history of a transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/transactions/" + args[0] + "/votes")
		},
	}
	rootCmd.AddCommand(votesCmd)

	var (
		voterID  string
		decision string
		comment  string
	)

	voteCmd := &cobra.Command{
		Use:   "vote <transaction-id>",
		Short: "Submit a vote on a transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			submitVote(args[0], map[string]any{
				"voter_id": voterID,
				"decision": decision,
				"comment":  comment,
			})
		},
	}
	voteCmd.Flags().StringVar(&voterID, "voter", "", "Voter ID (required)")
	voteCmd.Flags().StringVar(&decision, "decision", "approved", "Vote decision (approved or rejected)")
	voteCmd.Flags().StringVar(&comment, "comment", "", "Optional comment")
	voteCmd.MarkFlagRequired("voter")
	rootCmd.AddCommand(voteCmd)

	pendingCmd := &cobra.Command{
		Use:   "pending <voter-id>",
		Short: "List pending transactions awaiting the voter",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/approvals/pending?voter_id=" + args[0])
		},
	}
	rootCmd.AddCommand(pendingCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func createTransaction(payload map[string]any) {
	post("/api/v1/transactions", payload)
}

func submitVote(transactionID string, payload map[string]any) {
	post("/api/v1/transactions/"+transactionID+"/votes", payload)
}

func post(path string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("Failed to encode request: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func get(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func printResponse(resp *http.Response) {
	body, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}
