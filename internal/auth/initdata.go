package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// hashKey is the field carrying the client-supplied signature. It is
// excluded from the check string and compared against the recomputed hash.
const hashKey = "hash"

// domainSeparator keys the secondary-key derivation so the bot secret is
// never used as an HMAC key directly.
const domainSeparator = "WebAppData"

// Pair is one key/value from the init-data blob, in wire order.
type Pair struct {
	Key   string
	Value string
}

// ParsePairs splits init data into decoded key/value pairs, preserving
// wire order and blank values. Entries without '=' are skipped; a
// malformed percent escape fails the whole parse.
func ParsePairs(initData string) ([]Pair, error) {
	var pairs []Pair
	for _, field := range strings.Split(initData, "&") {
		if field == "" {
			continue
		}
		rawKey, rawValue, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("malformed init data key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("malformed init data value for %q: %w", key, err)
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return pairs, nil
}

// CheckString builds the canonical check string: every pair except the
// hash field, sorted by key (stable, so duplicate keys keep wire order),
// joined as "key=value" lines.
func CheckString(pairs []Pair) string {
	kept := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if p.Key == hashKey {
			continue
		}
		kept = append(kept, p)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Key < kept[j].Key
	})

	lines := make([]string, len(kept))
	for i, p := range kept {
		lines[i] = p.Key + "=" + p.Value
	}
	return strings.Join(lines, "\n")
}

// Verify reports whether the init-data blob carries a valid signature for
// botSecret. Malformed input and a missing hash field both verify as
// false; Verify never returns an error.
func Verify(initData, botSecret string) bool {
	pairs, err := ParsePairs(initData)
	if err != nil {
		return false
	}

	received := ""
	for _, p := range pairs {
		if p.Key == hashKey {
			received = p.Value
		}
	}
	if received == "" {
		return false
	}

	expected := computeHash(CheckString(pairs), botSecret)
	return hmac.Equal([]byte(expected), []byte(received))
}

// BuildInitData assembles a signed init-data blob from values. Intended
// for dev tooling and tests; the production path only ever verifies.
func BuildInitData(values map[string]string, botSecret string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == hashKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	encoded := make([]string, 0, len(keys)+1)
	for i, k := range keys {
		lines[i] = k + "=" + values[k]
		encoded = append(encoded, url.QueryEscape(k)+"="+url.QueryEscape(values[k]))
	}

	sig := computeHash(strings.Join(lines, "\n"), botSecret)
	encoded = append(encoded, hashKey+"="+sig)
	return strings.Join(encoded, "&")
}

// ParseForApp decodes the blob into a lookup map for application callers.
// The "user" field is JSON-decoded when present and valid; duplicate keys
// resolve to the last occurrence.
func ParseForApp(initData string) (map[string]any, error) {
	pairs, err := ParsePairs(initData)
	if err != nil {
		return nil, err
	}

	data := make(map[string]any, len(pairs))
	for _, p := range pairs {
		data[p.Key] = p.Value
	}

	if raw, ok := data["user"].(string); ok {
		var user map[string]any
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			data["user"] = user
		}
	}
	return data, nil
}

func computeHash(checkString, botSecret string) string {
	secondary := hmac.New(sha256.New, []byte(domainSeparator))
	secondary.Write([]byte(botSecret))
	secretKey := secondary.Sum(nil)

	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(checkString))
	return hex.EncodeToString(mac.Sum(nil))
}
