package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type askResponse struct {
	Response string `json:"response"`
	Parts    []struct {
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Supplier string  `json:"supplier"`
	} `json:"parts"`
	KnowledgeBase []struct {
		Title    string `json:"title"`
		Category string `json:"category"`
	} `json:"knowledgeBase"`
	WebResults []struct {
		Title  string   `json:"title"`
		URL    string   `json:"url"`
		Price  *float64 `json:"price"`
		Source string   `json:"source"`
	} `json:"webResults"`
	Installation *string `json:"installation"`
	Tips         *string `json:"tips"`
	Sources      struct {
		Database          int `json:"database"`
		Knowledge         int `json:"knowledge"`
		Web               int `json:"web"`
		ProactiveSearches int `json:"proactiveSearches"`
	} `json:"sources"`
	AIPowered bool `json:"aiPowered"`
}

func newAskCommand() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask the parts assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(strings.Join(args, " "), token)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "session token (omit when the API runs with auth disabled)")
	return cmd
}

func runAsk(message, token string) error {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, apiURL+"/api/v1/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " thinking..."
	sp.Start()

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Do(req)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("call API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var reply askResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	printReply(reply)
	return nil
}

func printReply(reply askResponse) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	fmt.Println(reply.Response)

	if reply.Installation != nil {
		fmt.Println()
		bold.Println("Installation")
		fmt.Println(*reply.Installation)
	}
	if reply.Tips != nil {
		fmt.Println()
		bold.Println("Tips")
		fmt.Println(*reply.Tips)
	}

	if len(reply.Parts) > 0 {
		fmt.Println()
		bold.Println("Catalog parts")
		for _, p := range reply.Parts {
			green.Printf("  %s", p.Name)
			fmt.Printf(" $%.2f (%s)\n", p.Price, p.Supplier)
		}
	}

	if len(reply.WebResults) > 0 {
		fmt.Println()
		bold.Println("Web results")
		for _, r := range reply.WebResults {
			cyan.Printf("  %s", r.Title)
			if r.Price != nil {
				fmt.Printf(" $%.2f", *r.Price)
			}
			fmt.Printf(" [%s]\n    %s\n", r.Source, r.URL)
		}
	}

	fmt.Println()
	yellow.Printf("sources: %d catalog, %d knowledge, %d web (%d proactive)",
		reply.Sources.Database, reply.Sources.Knowledge,
		reply.Sources.Web, reply.Sources.ProactiveSearches)
	if !reply.AIPowered {
		yellow.Print(" [templated reply, no AI]")
	}
	fmt.Println()
}
