package app

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadEnvFiles loads dotenv files of KEY=VALUE pairs into the process
// environment, in order, so later files win. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		n, err := loadEnvFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		log.Debug().Str("file", p).Int("vars", n).Msg("loaded env file")
	}
	return nil
}

func loadEnvFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	set := 0
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		key, val, ok, skip := parseEnvLine(scanner.Text())
		if skip {
			continue
		}
		if !ok {
			log.Warn().Str("file", path).Int("line", lineNo).Msg("ignoring malformed env line")
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return set, err
		}
		set++
	}
	return set, scanner.Err()
}

// parseEnvLine splits "[export ]KEY=VALUE". skip reports blank lines and
// comments; ok is false for anything else that is not a pair.
func parseEnvLine(line string) (key, val string, ok, skip bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false, true
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	key, val, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false, false
	}
	val = strings.TrimSpace(val)
	if n := len(val); n >= 2 && (val[0] == '"' || val[0] == '\'') && val[n-1] == val[0] {
		val = val[1 : n-1]
	}
	return key, val, true, false
}
