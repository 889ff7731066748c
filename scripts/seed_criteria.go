// seed_criteria.go loads a YAML file of criterion sets and creates them via the Assay API.
//
// Usage:
//
//	go run scripts/seed_criteria.go -file criteria.yaml -api http://localhost:8700 -owner acme
//
// File format:
//
//	risk:
//	  - name: Likelihood
//	    weight: 50
//	    min_value: 1
//	    max_value: 5
//	bia:
//	  - name: Revenue impact
//	    weight: 100
//	    kind: qualitative
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type criterion struct {
	ModuleType  string   `yaml:"-" json:"module_type"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Weight      float64  `yaml:"weight" json:"weight"`
	Kind        string   `yaml:"kind,omitempty" json:"kind,omitempty"`
	MinValue    *float64 `yaml:"min_value,omitempty" json:"min_value,omitempty"`
	MaxValue    *float64 `yaml:"max_value,omitempty" json:"max_value,omitempty"`
}

func main() {
	filePath := flag.String("file", "criteria.yaml", "path to criteria YAML file")
	apiURL := flag.String("api", "http://localhost:8700", "Assay API base URL")
	ownerID := flag.String("owner", "", "X-Owner-ID header value")
	dryRun := flag.Bool("dry-run", false, "print criteria without posting")
	flag.Parse()

	if *ownerID == "" && !*dryRun {
		log.Fatal("-owner is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("read %s: %v", *filePath, err)
	}
	var sets map[string][]criterion
	if err := yaml.Unmarshal(data, &sets); err != nil {
		log.Fatalf("parse %s: %v", *filePath, err)
	}

	modules := make([]string, 0, len(sets))
	for m := range sets {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	var items []criterion
	for _, m := range modules {
		var total float64
		for _, c := range sets[m] {
			c.ModuleType = m
			total += c.Weight
			items = append(items, c)
		}
		if math.Abs(total-100) > 0.001 {
			log.Printf("warning: %s weights sum to %.2f, not 100", m, total)
		}
	}

	log.Printf("parsed %d criteria across %d modules from %s", len(items), len(modules), *filePath)

	if *dryRun {
		for i, c := range items {
			fmt.Printf("[%d] %s/%s weight=%.2f kind=%s\n", i+1, c.ModuleType, c.Name, c.Weight, c.Kind)
		}
		return
	}

	client := &http.Client{}
	created, skipped := 0, 0
	for _, c := range items {
		body, _ := json.Marshal(c)
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/criteria", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %q: %v", c.Name, err)
			skipped++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Owner-ID", *ownerID)

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %q: %v", c.Name, err)
			skipped++
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			created++
		} else {
			log.Printf("skip %q: status %d", c.Name, resp.StatusCode)
			skipped++
		}
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}
