package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

const (
	headerSignature = "X-HookQ-Signature"
	headerTimestamp = "X-HookQ-Timestamp"
)

// signRequest stamps the request with a timestamped HMAC so receivers can
// verify origin and reject replays. Subscriptions without a secret are sent
// unsigned.
func signRequest(req *http.Request, secret string, body []byte) {
	if secret == "" {
		return
	}
	ts := time.Now().Unix()
	req.Header.Set(headerTimestamp, fmt.Sprintf("%d", ts))
	req.Header.Set(headerSignature, computeSignature(secret, ts, body))
}

// computeSignature hex-encodes HMAC-SHA256 over "<unix-ts>.<body>".
func computeSignature(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
