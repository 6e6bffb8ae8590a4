package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
)

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	purple = color.New(color.FgMagenta).SprintFunc()
)

type Options struct {
	URL       string `long:"url" default:"http://localhost:8080" description:"Base URL of the agent"`
	Test      string `long:"test" default:"all" description:"Test type: all, health, agent-card, profile, events, schedule, a2a"`
	Guidance  string `long:"guidance" default:"A 23-year-old Asian female." description:"Persona guidance"`
	StartDate string `long:"start" default:"2024-01-05" description:"Schedule start date"`
	EndDate   string `long:"end" default:"2024-01-11" description:"Schedule end date"`
}

type TestClient struct {
	baseURL string
	client  *http.Client
	opts    *Options
}

func NewTestClient(opts *Options) *TestClient {
	return &TestClient{
		baseURL: strings.TrimRight(opts.URL, "/"),
		// schedule generation makes two model calls
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		opts: opts,
	}
}

func main() {
	opts := &Options{}
	if _, err := flags.Parse(opts); err != nil {
		os.Exit(1)
	}

	client := NewTestClient(opts)

	printHeader("Persona Schedule Generator - Test Suite")
	fmt.Printf("%s\n\n", cyan("Base URL: "+client.baseURL))

	tests := map[string]func() bool{
		"health":     client.testHealthCheck,
		"agent-card": client.testAgentCard,
		"profile":    client.testProfile,
		"events":     client.testEvents,
		"schedule":   client.testSchedule,
		"a2a":        client.testA2ATask,
	}

	if opts.Test == "all" {
		client.runAllTests()
		return
	}
	fn, ok := tests[opts.Test]
	if !ok {
		printError(fmt.Sprintf("Unknown test type: %s", opts.Test))
		fmt.Println("\nAvailable tests: all, health, agent-card, profile, events, schedule, a2a")
		os.Exit(1)
	}
	if !fn() {
		os.Exit(1)
	}
}

func (tc *TestClient) runAllTests() {
	tests := []struct {
		name string
		fn   func() bool
	}{
		{"Health Check", tc.testHealthCheck},
		{"Agent Card", tc.testAgentCard},
		{"Profile", tc.testProfile},
		{"Events", tc.testEvents},
		{"Schedule", tc.testSchedule},
		{"A2A Task", tc.testA2ATask},
	}

	passed := 0
	failed := 0

	for _, test := range tests {
		if test.fn() {
			passed++
		} else {
			failed++
		}
		fmt.Println()
	}

	printHeader("Test Summary")
	fmt.Println(green(fmt.Sprintf("Passed: %d", passed)))
	fmt.Println(red(fmt.Sprintf("Failed: %d", failed)))
	fmt.Printf("Total: %d\n", passed+failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func (tc *TestClient) testHealthCheck() bool {
	printTestHeader("Testing Health Check Endpoint")

	url := fmt.Sprintf("%s/health", tc.baseURL)
	fmt.Printf("GET %s\n", url)

	resp, err := tc.client.Get(url)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		return false
	}
	if string(body) != "OK" {
		printError(fmt.Sprintf("Expected body 'OK', got '%s'", string(body)))
		return false
	}

	printSuccess("Health check passed")
	return true
}

func (tc *TestClient) testAgentCard() bool {
	printTestHeader("Testing Agent Card Endpoint")

	url := fmt.Sprintf("%s/.well-known/agent.json", tc.baseURL)
	fmt.Printf("GET %s\n", url)

	resp, err := tc.client.Get(url)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var agentCard map[string]interface{}
	if err := json.Unmarshal(body, &agentCard); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}

	for _, field := range []string{"name", "description", "version", "capabilities", "skills"} {
		if _, ok := agentCard[field]; !ok {
			printError(fmt.Sprintf("Missing required field: %s", field))
			return false
		}
	}

	printSuccess("Agent card is valid")
	printJSON(body)
	return true
}

func (tc *TestClient) testProfile() bool {
	printTestHeader("Testing Profile Generation")

	var out struct {
		Profile string `json:"profile"`
	}
	if !tc.postJSON("/v1/profile", map[string]interface{}{"guidance": tc.opts.Guidance}, &out) {
		return false
	}
	if strings.TrimSpace(out.Profile) == "" {
		printError("Empty profile")
		return false
	}

	printSuccess("Profile generated")
	printBlock("Profile", out.Profile)
	return true
}

func (tc *TestClient) testEvents() bool {
	printTestHeader("Testing Event Proposal")

	var profile struct {
		Profile string `json:"profile"`
	}
	if !tc.postJSON("/v1/profile", map[string]interface{}{"guidance": tc.opts.Guidance}, &profile) {
		return false
	}

	var out struct {
		Event []string `json:"event"`
	}
	if !tc.postJSON("/v1/events", map[string]interface{}{"profile": profile.Profile}, &out) {
		return false
	}
	if len(out.Event) == 0 {
		printError("No events proposed")
		return false
	}

	printSuccess(fmt.Sprintf("%d events proposed", len(out.Event)))
	printBlock("Events", strings.Join(out.Event, "\n"))
	return true
}

func (tc *TestClient) testSchedule() bool {
	printTestHeader("Testing Schedule Generation")

	var out struct {
		Persona  string        `json:"persona"`
		Schedule string        `json:"schedule"`
		Entries  []interface{} `json:"entries"`
	}
	request := map[string]interface{}{
		"guidance":   tc.opts.Guidance,
		"start_date": tc.opts.StartDate,
		"end_date":   tc.opts.EndDate,
		"validate":   true,
	}
	if !tc.postJSON("/v1/schedule", request, &out) {
		return false
	}

	printSuccess(fmt.Sprintf("Schedule generated with %d entries", len(out.Entries)))
	printBlock("Persona", out.Persona)
	printBlock("Schedule", out.Schedule)
	return true
}

func (tc *TestClient) testA2ATask() bool {
	printTestHeader("Testing A2A Task")

	url := fmt.Sprintf("%s/a2a/generator", tc.baseURL)
	fmt.Printf("POST %s\n", url)
	fmt.Printf("%s %s\n\n", cyan("Guidance:"), tc.opts.Guidance)

	request := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      fmt.Sprintf("test-%d", time.Now().Unix()),
		"method":  "message/send",
		"params": map[string]interface{}{
			"message": map[string]interface{}{
				"kind": "message",
				"role": "user",
				"parts": []map[string]interface{}{
					{"kind": "text", "text": tc.opts.Guidance},
					{"kind": "data", "data": map[string]interface{}{
						"start_date": tc.opts.StartDate,
						"end_date":   tc.opts.EndDate,
					}},
				},
			},
			"configuration": map[string]interface{}{
				"blocking":            true,
				"acceptedOutputModes": []string{"text", "data"},
			},
		},
	}

	jsonData, _ := json.MarshalIndent(request, "", "  ")
	fmt.Println(yellow("Request:"))
	fmt.Println(string(jsonData))
	fmt.Println()

	resp, err := tc.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var response struct {
		Error  interface{} `json:"error"`
		Result *struct {
			Status struct {
				State   string `json:"state"`
				Message struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"message"`
			} `json:"status"`
			Artifacts []struct {
				Name string `json:"name"`
			} `json:"artifacts"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}

	if response.Error != nil {
		printError("Request returned an error")
		errJSON, _ := json.MarshalIndent(response.Error, "", "  ")
		fmt.Println(string(errJSON))
		return false
	}
	if response.Result == nil {
		printError("Invalid result format")
		return false
	}
	if state := response.Result.Status.State; state != "completed" {
		printError(fmt.Sprintf("Expected state 'completed', got '%s'", state))
		for _, part := range response.Result.Status.Message.Parts {
			fmt.Println(part.Text)
		}
		return false
	}

	printSuccess("A2A task completed successfully")
	for _, part := range response.Result.Status.Message.Parts {
		printBlock("Response", part.Text)
	}

	names := make([]string, 0, len(response.Result.Artifacts))
	for _, a := range response.Result.Artifacts {
		names = append(names, a.Name)
	}
	fmt.Printf("\n%s %s\n", purple("Artifacts:"), strings.Join(names, ", "))
	return true
}

// postJSON posts request to path and decodes a 200 response into out.
func (tc *TestClient) postJSON(path string, request interface{}, out interface{}) bool {
	url := tc.baseURL + path
	fmt.Printf("POST %s\n", url)

	jsonData, _ := json.Marshal(request)
	resp, err := tc.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		printJSON(body)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	return true
}

func printHeader(text string) {
	line := strings.Repeat("=", len(text)+4)
	fmt.Printf("\n%s\n%s\n%s\n\n", blue(line), blue("= "+text+" ="), blue(line))
}

func printTestHeader(text string) {
	fmt.Println(cyan("[TEST] " + text))
	fmt.Println(strings.Repeat("-", 80))
}

func printSuccess(text string) {
	fmt.Println(green("✓ " + text))
}

func printError(text string) {
	fmt.Println(red("✗ " + text))
}

func printBlock(title, text string) {
	fmt.Printf("\n%s\n", green(title+":"))
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println(strings.TrimSpace(text))
	fmt.Println(strings.Repeat("=", 80))
}

func printJSON(data []byte) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, data, "", "  "); err == nil {
		fmt.Printf("\n%s\n%s\n", yellow("Response:"), prettyJSON.String())
	}
}
