package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	base := flag.String("url", "http://localhost:8081", "Server base URL")
	flag.Parse()

	_ = godotenv.Load()
	cronSecret := strings.TrimSpace(os.Getenv("CRON_SECRET"))

	url := strings.TrimRight(*base, "/") + "/api/v1/cron"
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		os.Exit(1)
	}
	if cronSecret != "" {
		req.Header.Set("Authorization", "Bearer "+cronSecret)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	fmt.Printf("Response Status: %s\n", resp.Status)
	body, _ := io.ReadAll(resp.Body)
	var out struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &out); err == nil {
		if out.Message != "" {
			fmt.Println(out.Message)
		}
		if out.Error != "" {
			fmt.Printf("%s: %s\n", out.Error, out.Details)
		}
	}
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
