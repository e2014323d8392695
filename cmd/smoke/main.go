// Command smoke drives a running server through ingest, graph and QA.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	baseURL := flag.String("addr", envOr("KG_BASE_URL", "http://localhost:8080"), "server base URL")
	wait := flag.Duration("wait", 2*time.Second, "time to wait for the server to start")
	flag.Parse()

	time.Sleep(*wait)
	client := &http.Client{Timeout: 30 * time.Second}
	source := fmt.Sprintf("smoke-%d", time.Now().Unix())

	fmt.Println("Starting smoke test...")

	fmt.Println("1. Ingesting text...")
	var ingest struct {
		Nodes []map[string]any `json:"nodes"`
		Edges []map[string]any `json:"edges"`
	}
	must(send(client, http.MethodPost, *baseURL+"/api/ingest-text", map[string]string{
		"source": source,
		"text":   "Kubernetes depends on etcd. Go is a programming language. Go uses goroutines.",
	}, &ingest), "ingest text")
	if len(ingest.Edges) == 0 {
		fail("ingest text", fmt.Errorf("graph has no edges"))
	}
	fmt.Printf("PASSED: ingest text (%d nodes, %d edges)\n", len(ingest.Nodes), len(ingest.Edges))

	fmt.Println("2. Asking a question...")
	var answer struct {
		Answer     string   `json:"answer"`
		CitedEdges []string `json:"cited_edges"`
	}
	must(send(client, http.MethodPost, *baseURL+"/api/qa", map[string]string{
		"question": "What does Kubernetes depend on?",
	}, &answer), "qa")
	if len(answer.CitedEdges) == 0 {
		fail("qa", fmt.Errorf("no evidence cited for %q", answer.Answer))
	}
	fmt.Printf("PASSED: qa (%s)\n", answer.Answer)

	fmt.Println("3. Detecting communities...")
	var comms []map[string]any
	must(send(client, http.MethodGet, *baseURL+"/api/communities", nil, &comms), "communities")
	fmt.Printf("PASSED: communities (%d)\n", len(comms))
}

func send(client *http.Client, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func must(err error, step string) {
	if err != nil {
		fail(step, err)
	}
}

func fail(step string, err error) {
	fmt.Printf("FAILED: %s: %v\n", step, err)
	os.Exit(1)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
