package asset_collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/entitlogo/entitlogo/pkg/policy_merging"
)

// Local mode reads previously exported search results from disk. Exports
// produced on Windows hosts tend to arrive as UTF-16LE with a BOM, so the
// importer transparently accepts that alongside plain UTF-8; anything else
// is a fatal input error.

// LoadPolicies reads a JSON array of IAM policy search results.
func LoadPolicies(path string) ([]policy_merging.PolicyRecord, error) {
	data, err := readJSONFile(path)
	if err != nil {
		return nil, err
	}

	var raw []rawPolicyRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse policies file %s: %v", path, err)
	}

	policies := make([]policy_merging.PolicyRecord, 0, len(raw))
	for _, record := range raw {
		policies = append(policies, record.normalize())
	}
	return policies, nil
}

// LoadServiceAccounts reads a JSON array of service-account resource
// search results.
func LoadServiceAccounts(path string) ([]policy_merging.ServiceAccountRecord, error) {
	data, err := readJSONFile(path)
	if err != nil {
		return nil, err
	}

	var raw []rawServiceAccountRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse service accounts file %s: %v", path, err)
	}

	serviceAccounts := make([]policy_merging.ServiceAccountRecord, 0, len(raw))
	for _, record := range raw {
		serviceAccounts = append(serviceAccounts, record.normalize())
	}
	return serviceAccounts, nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

func readJSONFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %v", err)
	}
	return decodeInput(path, data)
}

// decodeInput returns UTF-8 bytes from a UTF-8 or UTF-16LE-with-BOM input.
func decodeInput(path string, data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], nil
	case bytes.HasPrefix(data, bomUTF16LE):
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		decoded, err := decoder.Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode UTF-16 input file %s: %v", path, err)
		}
		return decoded, nil
	case bytes.HasPrefix(data, bomUTF16BE):
		return nil, fmt.Errorf("unsupported encoding in %s: UTF-16 big-endian", path)
	default:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("unsupported encoding in %s: expected UTF-8 or UTF-16LE with BOM", path)
		}
		return data, nil
	}
}
