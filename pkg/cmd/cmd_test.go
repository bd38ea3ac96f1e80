package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishjudge/pkg/detector"
)

type fakeChecker struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeChecker) Check(_ context.Context, rawURL string) (*detector.Verdict, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()

	if strings.Contains(rawURL, "fail") {
		return nil, errors.New("classifier unavailable")
	}
	v := &detector.Verdict{URL: rawURL, Label: detector.Legitimate, Probability: 0.1, Confidence: 0.9}
	if strings.Contains(rawURL, "phish") {
		v.Label = detector.Phishing
		v.Probability = 0.9
	}
	return v, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestReadURLsFromFile(t *testing.T) {
	path := writeFile(t, "urls.txt", "# seeds\nexample.com\n\n  http://a.test/x  \nHTTPS://b.test\n")
	urls, err := ReadURLsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com", "http://a.test/x", "HTTPS://b.test"}, urls)

	_, err = ReadURLsFromFile(writeFile(t, "empty.txt", "# nothing\n\n"))
	assert.Error(t, err)

	_, err = ReadURLsFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestReadPhishTank(t *testing.T) {
	data := `phish_id,url,phish_detail_url,submission_time,verified,verification_time,online,target
1,http://login.evil.test/,d,t,yes,t,yes,Bank
2,http://offline.test/,d,t,yes,t,no,Bank
3,http://unverified.test/,d,t,no,t,yes,Other
4,secure-pay.test/verify,d,t,yes,t,yes,Other
5,short,row
`
	seeds, err := readPhishTank(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, "http://login.evil.test/", seeds[0].URL)
	assert.Equal(t, "https://secure-pay.test/verify", seeds[1].URL)
	for _, s := range seeds {
		require.NotNil(t, s.Label)
		assert.True(t, *s.Label)
	}

	_, err = readPhishTank(strings.NewReader("id,link\n1,http://x.test\n"))
	assert.ErrorContains(t, err, `"url"`)

	_, err = readPhishTank(strings.NewReader("url,verified,online\nhttp://x.test,no,no\n"))
	assert.Error(t, err)
}

func TestCSVWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rows.csv")

	w, isNew, err := NewCSVWriter(path)
	require.NoError(t, err)
	assert.True(t, isNew)
	require.NoError(t, w.WriteRow([]string{"a", "b"}))
	require.NoError(t, w.Close())

	w, isNew, err = NewCSVWriter(path)
	require.NoError(t, err)
	assert.False(t, isNew)
	require.NoError(t, w.WriteRow([]string{"c", "d,e"}))
	require.NoError(t, w.Close())

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d,e"}}, readCSV(t, path))
}

func TestDedupe(t *testing.T) {
	seeds := labelled([]string{
		"https://Example.com/",
		"https://example.com",
		"example.com",
		"https://other.test/path",
	}, nil)
	unique, dups := dedupe(seeds)
	assert.Equal(t, 2, dups)
	require.Len(t, unique, 2)
	assert.Equal(t, "https://Example.com/", unique[0].URL)
	assert.Equal(t, "https://other.test/path", unique[1].URL)
}

func TestRunScan(t *testing.T) {
	truth := true
	seeds := []Seed{
		{URL: "https://phish.test/login", Label: &truth},
		{URL: "https://phish.test/login"},
		{URL: "https://good.test/"},
		{URL: "https://fail.test/"},
	}
	out := filepath.Join(t.TempDir(), "verdicts.csv")
	var stdout bytes.Buffer
	c := &fakeChecker{}

	summary, err := runScan(context.Background(), c, seeds, scanOptions{
		Workers: 3,
		Output:  out,
		JSON:    true,
		Stdout:  &stdout,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, scanSummary{Seeds: 4, Duplicates: 1, Checked: 2, Phishing: 1, Failed: 1}, summary)
	assert.Len(t, c.calls, 3)

	rows := readCSV(t, out)
	require.Len(t, rows, 3)
	header := detector.CSVHeader()
	assert.Equal(t, header, rows[0])

	byURL := map[string][]string{}
	for _, r := range rows[1:] {
		require.Len(t, r, len(header))
		byURL[r[1]] = r
	}
	assert.Equal(t, "True", byURL["https://phish.test/login"][len(header)-1])
	assert.Equal(t, "", byURL["https://good.test/"][len(header)-1])

	assert.Equal(t, 2, strings.Count(stdout.String(), `"risk_level"`))

	// A second run appends without repeating the header.
	_, err = runScan(context.Background(), c, seeds[2:3], scanOptions{Workers: 1, Output: out}, nil)
	require.NoError(t, err)
	rows = readCSV(t, out)
	assert.Len(t, rows, 4)
	assert.Equal(t, "id", rows[0][0])
	assert.NotEqual(t, "id", rows[3][0])
}

func TestRunScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runScan(ctx, &fakeChecker{}, labelled([]string{"https://a.test", "https://b.test"}, nil), scanOptions{Workers: 2}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBlacklistCommands(t *testing.T) {
	dir := t.TempDir()
	blPath := filepath.Join(dir, "blacklist.txt")
	cfgPath := writeFile(t, "config.yaml", "data:\n  blacklist_file: "+blPath+"\n")

	run := func(args ...string) string {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		require.NoError(t, rootCmd.Execute())
		return out.String()
	}

	assert.Contains(t, run("blacklist", "add", "evil.test", "https://Bad.test/x"), "2 domains listed")
	assert.Equal(t, "bad.test\nevil.test\n", run("blacklist", "list"))
	assert.Contains(t, run("blacklist", "remove", "evil.test", "missing.test"), "missing.test is not listed")
	assert.Equal(t, "bad.test\n", run("blacklist", "list"))

	data, err := os.ReadFile(blPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bad.test")
	assert.Contains(t, run("version"), "phishjudge "+Version)
}
