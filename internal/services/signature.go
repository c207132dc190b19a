package services

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/ArowuTest/topup-callback/internal/config"
	"github.com/ArowuTest/topup-callback/internal/logger"
	"go.uber.org/zap"
)

// SignatureFields are the callback fields covered by the provider signature.
type SignatureFields struct {
	PartnerID string
	Code      string
	Serial    string
	Sign      string
}

func (f SignatureFields) missing() []string {
	var out []string
	if f.PartnerID == "" {
		out = append(out, "partner_id")
	}
	if f.Code == "" {
		out = append(out, "code")
	}
	if f.Serial == "" {
		out = append(out, "serial")
	}
	if f.Sign == "" {
		out = append(out, "sign")
	}
	return out
}

// SignatureVerifier authenticates provider callbacks. The provider signs
// hex(md5(secret + code + serial)) and sends its partner id alongside.
type SignatureVerifier struct {
	partnerID string
	secret    string
	mode      string
	log       *zap.Logger
}

// NewSignatureVerifier creates a verifier for the configured provider credentials
func NewSignatureVerifier(cfg config.ProviderConfig, log *zap.Logger) *SignatureVerifier {
	mode := cfg.SignatureMode
	if mode != config.SignatureLenient {
		mode = config.SignatureStrict
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SignatureVerifier{
		partnerID: cfg.PartnerID,
		secret:    cfg.SecretKey,
		mode:      mode,
		log:       log.Named("signature"),
	}
}

// Sign returns the signature the provider is expected to send for code and serial.
func (v *SignatureVerifier) Sign(code, serial string) string {
	return SignPayload(v.secret, code, serial)
}

// SignPayload computes hex(md5(secret + code + serial)).
func SignPayload(secret, code, serial string) string {
	sum := md5.Sum([]byte(secret + code + serial))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether partnerID is the trusted partner and signature matches code and serial.
func (v *SignatureVerifier) Verify(partnerID, code, serial, signature string) bool {
	return v.partnerMatches(partnerID) && v.signatureMatches(code, serial, signature)
}

// Check applies the configured mode. Strict mode requires every signed field; lenient mode
// skips verification when any of them is absent and verifies complete sets like strict mode.
func (v *SignatureVerifier) Check(requestID string, f SignatureFields) error {
	if missing := f.missing(); len(missing) > 0 {
		if v.mode == config.SignatureLenient {
			v.log.Warn("signature fields incomplete, verification skipped",
				zap.String("request_id", requestID),
				zap.Strings("missing", missing),
			)
			return nil
		}
		return validationErrorf("missing fields: %s", strings.Join(missing, ", "))
	}

	if !v.partnerMatches(f.PartnerID) {
		v.log.Warn("partner id mismatch",
			zap.String("request_id", requestID),
			zap.String("partner_id", f.PartnerID),
		)
		return unauthorizedf("partner_id mismatch")
	}
	if !v.signatureMatches(f.Code, f.Serial, f.Sign) {
		v.log.Warn("invalid signature",
			zap.String("request_id", requestID),
			zap.String("sign", logger.MaskSecret(f.Sign)),
		)
		return unauthorizedf("invalid signature")
	}
	return nil
}

// Mode returns the effective verification mode.
func (v *SignatureVerifier) Mode() string { return v.mode }

func (v *SignatureVerifier) partnerMatches(partnerID string) bool {
	return v.partnerID != "" && partnerID == v.partnerID
}

func (v *SignatureVerifier) signatureMatches(code, serial, signature string) bool {
	expected := v.Sign(code, serial)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
