package certificate

import (
	"encoding/json"
	"time"
)

// Export serializes a Verified certificate as JSON for caching or
// replay.
func (v Verified) Export() ([]byte, error) {
	data, err := json.Marshal(v.rec)
	if err != nil {
		return nil, &Error{Code: ErrCodeSerializationFailed, Capability: v.rec.Capability, Reason: err.Error()}
	}
	return data, nil
}

// Import decodes a previously exported certificate and re-validates its
// expiry at now. A cached certificate whose time has run out fails with
// EXPIRED, the same as at the Verify step.
//
// The signature field is carried but not cryptographically verified;
// verification is a future extension point.
func Import(data []byte, now time.Time) (Verified, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Verified{}, &Error{Code: ErrCodeDeserializationFailed, Reason: err.Error()}
	}
	if rec.CertificateID == "" || rec.Capability == "" {
		return Verified{}, &Error{Code: ErrCodeDeserializationFailed, Reason: "missing certificate id or capability"}
	}
	if now.After(rec.ExpiresAt) {
		return Verified{}, &Error{Code: ErrCodeExpired, Capability: rec.Capability, Reason: "imported certificate has expired"}
	}
	return Verified{rec: rec}, nil
}
