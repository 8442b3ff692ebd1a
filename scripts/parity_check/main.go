// Command parity_check replays read-only requests against the Go API and the
// legacy Node notice-board API and reports response differences. Intended for
// use during the migration window before the legacy service is retired.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type targetsFile struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target       target
	GoStatus     int
	LegacyStatus int
	StatusMatch  bool
	BodyMatch    bool
	GoDuration   time.Duration
	Err          error
}

// volatileKeys are dropped before comparing bodies. Timestamps and generated
// identifiers legitimately differ between the two backends.
var volatileKeys = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"expires_at": {},
	"token":      {},
	"latency":    {},
}

func main() {
	var (
		goBase      string
		legacyBase  string
		token       string
		targetsPath string
		timeout     time.Duration
	)
	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5000", "legacy Node API base URL")
	flag.StringVar(&token, "token", os.Getenv("PARITY_TOKEN"), "bearer token valid for both backends")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "parity_check", "targets.json"), "JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	breaking := 0
	for _, tgt := range targets {
		res := compare(client, goBase, legacyBase, token, tgt)
		printResult(res)
		if tgt.Critical && (res.Err != nil || !res.StatusMatch || !res.BodyMatch) {
			breaking++
		}
	}

	fmt.Printf("breaking differences: %d\n", breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets in %s", path)
	}
	return file.Targets, nil
}

func compare(client *http.Client, goBase, legacyBase, token string, tgt target) result {
	res := result{Target: tgt}

	goStatus, goBody, goDur, err := fetch(client, goBase, token, tgt)
	if err != nil {
		res.Err = fmt.Errorf("go request: %w", err)
		return res
	}
	legacyStatus, legacyBody, _, err := fetch(client, legacyBase, token, tgt)
	if err != nil {
		res.Err = fmt.Errorf("legacy request: %w", err)
		return res
	}

	res.GoStatus = goStatus
	res.LegacyStatus = legacyStatus
	res.GoDuration = goDur
	res.StatusMatch = goStatus == legacyStatus
	res.BodyMatch = bodiesEquivalent(goBody, legacyBody)
	return res
}

func fetch(client *http.Client, base, token string, tgt target) (int, []byte, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	url := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(tgt.Path, "/")

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, err
	}
	return resp.StatusCode, body, time.Since(start), nil
}

func bodiesEquivalent(a, b []byte) bool {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return strings.TrimSpace(string(a)) == strings.TrimSpace(string(b))
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	stripVolatile(&av)
	stripVolatile(&bv)
	return reflect.DeepEqual(av, bv)
}

func stripVolatile(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for key := range val {
			if _, ok := volatileKeys[key]; ok {
				delete(val, key)
				continue
			}
			child := val[key]
			stripVolatile(&child)
			val[key] = child
		}
	case []interface{}:
		for i := range val {
			stripVolatile(&val[i])
		}
	}
}

func printResult(res result) {
	status := "ok"
	switch {
	case res.Err != nil:
		status = "error: " + res.Err.Error()
	case !res.StatusMatch:
		status = fmt.Sprintf("status mismatch go=%d legacy=%d", res.GoStatus, res.LegacyStatus)
	case !res.BodyMatch:
		status = "body mismatch"
	}
	fmt.Printf("%-6s %-40s %s (%s)\n", res.Target.Method, res.Target.Path, status, res.GoDuration.Round(time.Millisecond))
}
