package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

// flags
var (
	urlFlag = &cli.StringFlag{
		Name:  "url",
		Usage: "base url of the sentinel daemon",
		Value: "http://localhost:8787",
	}
	labelFlag = &cli.StringFlag{
		Name:  "label",
		Usage: "optional label for bookkeeping",
	}
	saltFlag = &cli.StringFlag{
		Name:     "salt",
		Usage:    "0x-prefixed 32-byte hex salt",
		Required: true,
	}
)

// commands
var (
	commitCmd = &cli.Command{
		Name:   "commit",
		Usage:  "Mint a new sentinel commitment",
		Flags:  []cli.Flag{urlFlag, labelFlag},
		Action: commitAction,
	}
	importCmd = &cli.Command{
		Name:   "import",
		Usage:  "Import a salt generated elsewhere",
		Flags:  []cli.Flag{urlFlag, saltFlag, labelFlag},
		Action: importAction,
	}
	scheduleCmd = &cli.Command{
		Name:      "schedule",
		Usage:     "Force a scheduling pass for a pool",
		ArgsUsage: "<poolId>",
		Flags:     []cli.Flag{urlFlag},
		Action:    scheduleAction,
	}
	statusCmd = &cli.Command{
		Name:   "status",
		Usage:  "Show the daemon status",
		Flags:  []cli.Flag{urlFlag},
		Action: statusAction,
	}
)

func commitAction(ctx *cli.Context) error {
	body, err := get(commitURL(ctx.String("url"), ctx.String("label")))
	if err != nil {
		return err
	}

	fmt.Println(body)
	return nil
}

func commitURL(baseURL, label string) string {
	u := fmt.Sprintf("%s/commit", baseURL)
	if len(label) > 0 {
		query := url.Values{"label": []string{label}}
		u = fmt.Sprintf("%s?%s", u, query.Encode())
	}
	return u
}

func importAction(ctx *cli.Context) error {
	baseURL := ctx.String("url")

	payload, _ := json.Marshal(map[string]string{
		"salt":  ctx.String("salt"),
		"label": ctx.String("label"),
	})

	url := fmt.Sprintf("%s/import", baseURL)
	body, err := post(url, payload)
	if err != nil {
		return err
	}

	fmt.Println(body)
	return nil
}

func scheduleAction(ctx *cli.Context) error {
	baseURL := ctx.String("url")
	poolID := ctx.Args().First()
	if len(poolID) <= 0 {
		return fmt.Errorf("missing pool id")
	}

	url := fmt.Sprintf("%s/schedule/%s", baseURL, poolID)
	body, err := post(url, nil)
	if err != nil {
		return err
	}

	fmt.Println(body)
	return nil
}

func statusAction(ctx *cli.Context) error {
	baseURL := ctx.String("url")

	url := fmt.Sprintf("%s/status", baseURL)
	body, err := get(url)
	if err != nil {
		return err
	}

	fmt.Println(body)
	return nil
}

func get(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	return readResponse(resp)
}

func post(url string, payload []byte) (string, error) {
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	return readResponse(resp)
}

func readResponse(resp *http.Response) (string, error) {
	// nolint:all
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s", string(body))
	}
	return string(body), nil
}
