package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"restbench/internal/format"
	"restbench/internal/model"
	"restbench/internal/workbench"
)

var (
	headerPairs []string
	headersJSON string
	data        string
	noHistory   bool
)

func init() {
	for _, method := range model.Methods {
		method := method
		cmd := &cobra.Command{
			Use:   strings.ToLower(method) + " <url>",
			Short: "Send a " + method + " request",
			Args:  cobra.ExactArgs(1),
			Run:   runRequest(method),
		}
		addRequestFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&headerPairs, "header", "H", []string{}, "Add header as 'Key: Value' (can be used multiple times)")
	cmd.Flags().StringVar(&headersJSON, "headers-json", "", "Request headers as a JSON object (overrides -H)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body (JSON string or @filename)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Don't save to history")
}

func runRequest(method string) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")

		a, err := newApp(cmd)
		if err != nil {
			format.PrintError(fmt.Sprintf("Startup failed: %v", err))
			os.Exit(1)
		}

		// Read body from file if prefixed with @
		body := data
		if strings.HasPrefix(body, "@") {
			content, err := os.ReadFile(strings.TrimPrefix(body, "@"))
			if err != nil {
				format.PrintError(fmt.Sprintf("Failed to read file: %v", err))
				os.Exit(1)
			}
			body = string(content)
		}

		form := model.RequestForm{
			URL:     args[0],
			Method:  method,
			Headers: headersText(),
			Body:    body,
		}

		bench := a.bench
		if noHistory {
			bench = workbench.NewSession(a.exec, nil, a.session, a.log)
		}
		bench.SetForm(form)

		rec, _ := bench.Submit(cmd.Context())
		format.PrintResponse(rec, verbose)
		if rec.Failed() {
			os.Exit(1)
		}
	}
}

// headersText resolves the header flags into the form's JSON text field.
// --headers-json is taken verbatim (and validated downstream); otherwise the
// repeated 'Key: Value' pairs are assembled into an object.
func headersText() string {
	if headersJSON != "" {
		return headersJSON
	}
	if len(headerPairs) == 0 {
		return ""
	}

	headers := make(map[string]string)
	for _, h := range headerPairs {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	text, err := json.Marshal(headers)
	if err != nil {
		return ""
	}
	return string(text)
}
