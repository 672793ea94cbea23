// Package fqn collects the fully-qualified symbol names to document.
package fqn

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
)

var defaults = []string{
	"driftpy.math.conversion.convert_to_number",
	"driftpy.constants.numeric_constants.PRICE_PRECISION",
	"driftpy.keypair.load_keypair",
	"driftpy.drift_client.DriftClient",
	"driftpy.drift_client.DriftClient.subscribe",
	"driftpy.accounts.ws.drift_client.WebsocketDriftClientAccountSubscriber.fetch",
	"driftpy.drift_client.DriftClient.unsubscribe",
	"driftpy.accounts.bulk_account_loader.BulkAccountLoader",
	"driftpy.drift_client.DriftClient.get_user",
	"driftpy.drift_client.DriftClient.add_user",
	"driftpy.constants.config.DRIFT_PROGRAM_ID",
	"driftpy.addresses.get_high_leverage_mode_config_public_key",
	"driftpy.constants.config.configs",
	"driftpy.constants.config.Config",
}

// Defaults returns a copy of the built-in FQN list.
func Defaults() []string {
	return append([]string(nil), defaults...)
}

// maxLineLength bounds a single line of an FQN file.
const maxLineLength = 64 << 20

// ReadFile reads one FQN per line. Lines are trimmed; blank lines and lines
// starting with '#' are skipped. Order and duplicates are kept.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FQN file: %w", err)
	}
	defer f.Close()

	var fqns []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fqns = append(fqns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read FQN file: %w", err)
	}
	return fqns, nil
}

// Collect returns the explicit FQNs followed by those read from inputPath
// (when non-empty). If both are empty the defaults are returned.
func Collect(explicit []string, inputPath string) ([]string, error) {
	fqns := append([]string(nil), explicit...)
	if inputPath != "" {
		fromFile, err := ReadFile(inputPath)
		if err != nil {
			return nil, err
		}
		fqns = append(fqns, fromFile...)
	}
	if len(fqns) == 0 {
		return Defaults(), nil
	}
	return fqns, nil
}

// Matcher filters FQNs by glob patterns. '*' stops at dots, '**' does not.
type Matcher struct {
	globs []glob.Glob
}

// NewMatcher compiles patterns. A matcher without patterns matches everything.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether name matches any pattern.
func (m *Matcher) Match(name string) bool {
	if len(m.globs) == 0 {
		return true
	}
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
