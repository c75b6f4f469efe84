// Package paramfile parses the pipe-delimited parameter file format accepted
// by cmd/mfa's --params flag: one "key|value" pair per line, "%"-prefixed
// comment lines, "${ENV:NAME}" environment-variable expansion, and
// "{other-parameter-name}" cross-references resolved lazily on first read.
//
// This format is independent of the YAML/viper-based service configuration in
// internal/config: it exists to let a single MFA run be parameterized the way
// a batch job is, with one file per concern (media composition, solver
// tolerances, thermodynamic constants) loaded in sequence and later files
// overriding earlier ones.
package paramfile

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

const maxExpansionDepth = 32

var (
	envTokenPattern   = regexp.MustCompile(`\$\{ENV:([A-Za-z_][A-Za-z0-9_]*)\}`)
	paramTokenPattern = regexp.MustCompile(`\{([^{}]+)\}`)
)

// Store holds the raw (unexpanded) parameter values read from one or more
// parameter files, and resolves ${ENV:...} and {other-parameter-name} tokens
// on read. Later calls to LoadFile overwrite earlier values for the same key,
// matching the last-file-wins behaviour of the original LoadParameterFile
// sequence.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

// LoadFile reads path and merges its key/value pairs into the store. Blank
// lines and lines whose first non-whitespace character is "%" are ignored.
// Every other non-empty line must contain at least one "|"; the text before
// the first "|" is the key, the text after is the raw value (additional "|"
// characters are kept as part of the value verbatim).
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "paramfile: failed to open parameter file "+path)
	}
	defer f.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "%") {
			continue
		}
		idx := strings.Index(line, "|")
		if idx < 0 {
			return mfaerr.InvalidParam(fmt.Sprintf("paramfile: %s:%d: expected \"key|value\", no \"|\" found", path, lineNo))
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			return mfaerr.InvalidParam(fmt.Sprintf("paramfile: %s:%d: empty parameter key", path, lineNo))
		}
		s.values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "paramfile: failed to read parameter file "+path)
	}
	return nil
}

// LoadList reads listPath as a newline-separated list of parameter file
// paths and loads each one in order via LoadFile, so that a single
// invocation can assemble its parameter set from several topical files
// (media, solver, thermodynamics) the way the original tool's top-level
// parameter-file-of-files did.
func (s *Store) LoadList(listPath string) error {
	f, err := os.Open(listPath)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "paramfile: failed to open parameter list "+listPath)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) <= 3 {
			continue
		}
		if err := s.LoadFile(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Set stores value under key, overwriting any previous value. Like the
// loaded values, it is stored raw — expansion happens at Get time.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get returns the fully expanded value for key and true, or "" and false if
// key was never set.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	expanded, err := s.expand(raw, map[string]bool{key: true}, 0)
	if err != nil {
		// A broken cross-reference degrades to the raw, unexpanded value
		// rather than aborting the caller; resolution failures are most
		// often a typo in a rarely-used parameter file.
		return raw, true
	}
	return expanded, true
}

// MustGet returns the expanded value for key, or an *mfaerr.Error with
// mfaerr.CodeInvalidParam if key was never set.
func (s *Store) MustGet(key string) (string, error) {
	v, ok := s.Get(key)
	if !ok {
		return "", mfaerr.InvalidParam("paramfile: missing required parameter " + key)
	}
	return v, nil
}

// expand resolves ${ENV:NAME} and {other-key} tokens in raw. visited guards
// against a {a}->{b}->{a} cycle; depth bounds the total recursion in case a
// chain of distinct keys runs unreasonably long.
func (s *Store) expand(raw string, visited map[string]bool, depth int) (string, error) {
	if depth > maxExpansionDepth {
		return "", fmt.Errorf("paramfile: expansion depth exceeded %d, possible cycle", maxExpansionDepth)
	}

	out := envTokenPattern.ReplaceAllStringFunc(raw, func(tok string) string {
		m := envTokenPattern.FindStringSubmatch(tok)
		return os.Getenv(m[1])
	})

	var expandErr error
	out = paramTokenPattern.ReplaceAllStringFunc(out, func(tok string) string {
		if expandErr != nil {
			return tok
		}
		name := tok[1 : len(tok)-1]
		if visited[name] {
			expandErr = fmt.Errorf("paramfile: cyclic parameter reference at %q", name)
			return tok
		}
		refRaw, ok := s.values[name]
		if !ok {
			// Unresolvable reference: leave the token in place so the
			// caller can see what failed to resolve.
			return tok
		}
		nextVisited := make(map[string]bool, len(visited)+1)
		for k := range visited {
			nextVisited[k] = true
		}
		nextVisited[name] = true
		resolved, err := s.expand(refRaw, nextVisited, depth+1)
		if err != nil {
			expandErr = err
			return tok
		}
		return resolved
	})
	if expandErr != nil {
		return "", expandErr
	}
	return out, nil
}

// All returns a snapshot of every parameter with its value expanded. The
// returned map is a copy; mutating it does not affect the Store.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, _ := s.Get(k)
		out[k] = v
	}
	return out
}
