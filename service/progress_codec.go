package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	compressedMarker = "__c"
	compressedData   = "d"
	shortKeyPrefix   = "~"
)

// shortenableKeys are replaced with "~<base36 index>" in large payloads.
// Append only: stored payloads depend on the index of each key.
var shortenableKeys = []string{
	"formData", "currentStep", "completedSteps", "validationResults", "metadata",
	"startTime", "lastSaved", "sessionId", "version", "isComplete", "deviceFingerprint",
	"firstName", "middleName", "lastName", "nickname", "email", "phone", "address",
	"city", "province", "postalCode", "propertyType", "monthlyBill", "selectedIdType",
	"extraction", "extractEdits", "name", "idNumber", "idType", "birthDate",
	"confidence", "explanation", "validationFlags", "matches", "score", "warnings",
	"suggestions", "firstNameMatch", "lastNameMatch", "middleNameMatch", "detectedType",
	"suggestion", "suggestedCanonicalValue",
}

var (
	shortCodes = make(map[string]string, len(shortenableKeys))
	longKeys   = make(map[string]string, len(shortenableKeys))
)

func init() {
	for i, k := range shortenableKeys {
		code := shortKeyPrefix + strconv.FormatInt(int64(i), 36)
		shortCodes[k] = code
		longKeys[code] = k
	}
}

// compressPayload rewrites the object keys of a JSON document with short
// codes. Keys that already start with "~" are escaped by doubling it.
func compressPayload(raw []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode payload for compression: %w", err)
	}
	return json.Marshal(map[string]any{
		compressedMarker: 1,
		compressedData:   rewriteKeys(doc, shortenKey),
	})
}

// expandPayload reverses compressPayload. Uncompressed input is returned unchanged.
func expandPayload(raw []byte) ([]byte, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode stored payload: %w", err)
	}
	if _, ok := envelope[compressedMarker]; !ok {
		return raw, nil
	}
	body, ok := envelope[compressedData]
	if !ok {
		return nil, fmt.Errorf("compressed payload has no data")
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode compressed payload: %w", err)
	}
	return json.Marshal(rewriteKeys(doc, expandKey))
}

func shortenKey(k string) string {
	if strings.HasPrefix(k, shortKeyPrefix) {
		return shortKeyPrefix + k
	}
	if code, ok := shortCodes[k]; ok {
		return code
	}
	return k
}

func expandKey(k string) string {
	if strings.HasPrefix(k, shortKeyPrefix+shortKeyPrefix) {
		return k[len(shortKeyPrefix):]
	}
	if long, ok := longKeys[k]; ok {
		return long
	}
	return k
}

func rewriteKeys(v any, rename func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[rename(k)] = rewriteKeys(child, rename)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = rewriteKeys(child, rename)
		}
		return out
	default:
		return v
	}
}

var secretKeys = map[string]bool{
	"password":        true,
	"confirmpassword": true,
	"captchatoken":    true,
}

func isSecretKey(k string) bool {
	normalized := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(k))
	return secretKeys[normalized]
}

// stripSecrets returns a deep copy of v without credential fields at any depth.
func stripSecrets(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			if isSecretKey(k) {
				continue
			}
			out[k] = stripSecrets(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = stripSecrets(child)
		}
		return out
	default:
		return v
	}
}

// toGenericMap converts a struct or map into a JSON-shaped map.
func toGenericMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// fromGenericMap decodes a JSON-shaped map into out.
func fromGenericMap(m map[string]any, out any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
