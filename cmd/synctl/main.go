// Package main is the synctl operator CLI for the banksync service
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

	"github.com/joho/godotenv"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: synctl [flags] <command>

Commands:
  status    print sync status for every linked account
  sync      trigger an immediate sync of every linked account

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	godotenv.Load()

	addr := flag.String("addr", envDefault("SYNCTL_ADDR", "http://localhost:8080"), "base URL of the banksync service")
	code := flag.String("code", os.Getenv("ADMIN_SECRET_CODE"), "admin secret code for mutating commands")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	var err error
	switch flag.Arg(0) {
	case "status":
		err = request(client, http.MethodGet, *addr+"/status", "")
	case "sync":
		err = request(client, http.MethodPost, *addr+"/sync", *code)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "synctl:", err)
		os.Exit(1)
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// request performs one API call and pretty-prints the JSON response
func request(client *http.Client, method, uri, adminCode string) error {
	req, err := http.NewRequest(method, uri, nil)
	if err != nil {
		return err
	}
	if adminCode != "" {
		req.Header.Set("X-Admin-Code", adminCode)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		// Not JSON, print as-is.
		fmt.Println(string(body))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}
	return nil
}
