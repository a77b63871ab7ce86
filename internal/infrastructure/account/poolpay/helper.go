package poolpay

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gridpool/pickem-league/internal/domain/settlement"
)

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}

func normalizeStatus(value string) settlement.Status {
	switch settlement.Status(strings.ToUpper(strings.TrimSpace(value))) {
	case settlement.StatusPaid:
		return settlement.StatusPaid
	case settlement.StatusPending:
		return settlement.StatusPending
	case settlement.StatusUnpaid:
		return settlement.StatusUnpaid
	default:
		return settlement.StatusUnknown
	}
}
