package cmd

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"phishjudge/pkg/common"
)

// Seed is one URL queued for a scan. Label carries the ground truth when the
// source provides one.
type Seed struct {
	URL   string
	Label *bool
}

func labelled(urls []string, label *bool) []Seed {
	seeds := make([]Seed, 0, len(urls))
	for _, u := range urls {
		seeds = append(seeds, Seed{URL: u, Label: label})
	}
	return seeds
}

// ReadURLsFromFile reads one URL per line. Blank lines and '#' comments are skipped.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, common.NormalizeURL(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	if len(urls) == 0 {
		return nil, errors.New("file contained no URLs")
	}
	return urls, nil
}

// ReadPhishTankFile reads a PhishTank CSV export and keeps the verified,
// online entries, each labelled as phishing.
func ReadPhishTankFile(filePath string) ([]Seed, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()
	return readPhishTank(file)
}

func readPhishTank(r io.Reader) ([]Seed, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read header row: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"url", "verified", "online"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("required column %q not found in CSV header", name)
		}
	}

	phishing := true
	var seeds []Seed
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV record: %w", err)
		}
		if len(record) != len(header) {
			continue
		}
		if record[col["verified"]] != "yes" || record[col["online"]] != "yes" {
			continue
		}
		if u := strings.TrimSpace(record[col["url"]]); u != "" {
			seeds = append(seeds, Seed{URL: common.NormalizeURL(u), Label: &phishing})
		}
	}

	if len(seeds) == 0 {
		return nil, errors.New("file contained no verified, online phishing URLs")
	}
	return seeds, nil
}
