// Package universe resolves the list of tickers a screening run covers.
package universe

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed lists/*.txt
var lists embed.FS

var ErrUnknownMarket = errors.New("unknown market")

// Markets maps a market name to the embedded watchlists it combines.
var Markets = map[string][]string{
	"US":   {"us"},
	"UK":   {"uk"},
	"HK":   {"hk"},
	"BOTH": {"us", "uk"},
	"ALL":  {"us", "uk", "hk"},
}

// Config selects tickers either explicitly, from a file, or by market.
// Explicit symbols win over a file, which wins over a market.
type Config struct {
	Market  string   `yaml:"market"`
	File    string   `yaml:"file"`
	Symbols []string `yaml:"symbols"`
}

// Resolve returns the deduplicated, upper-cased tickers described by cfg.
func Resolve(cfg Config) ([]string, error) {
	switch {
	case len(cfg.Symbols) > 0:
		return normalize(cfg.Symbols), nil
	case cfg.File != "":
		return LoadFile(cfg.File)
	case cfg.Market != "":
		return ForMarket(cfg.Market)
	}
	return nil, errors.New("universe: no symbols, file or market configured")
}

// ForMarket returns the built-in watchlist for market (US, UK, HK, BOTH, ALL).
func ForMarket(market string) ([]string, error) {
	names, ok := Markets[strings.ToUpper(strings.TrimSpace(market))]
	if !ok {
		return nil, fmt.Errorf("%w %q (options: US, UK, HK, BOTH, ALL)", ErrUnknownMarket, market)
	}
	var out []string
	for _, name := range names {
		f, err := lists.Open("lists/" + name + ".txt")
		if err != nil {
			return nil, err
		}
		syms, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, syms...)
	}
	return normalize(out), nil
}

// LoadFile reads tickers from a text file.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()
	syms, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read universe file %s: %w", path, err)
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("universe file %s has no tickers", path)
	}
	return syms, nil
}

// Parse reads whitespace- or comma-separated tickers. Text after '#' is a comment.
func Parse(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		out = append(out, strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return normalize(out), nil
}

func normalize(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
