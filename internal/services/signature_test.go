package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/ArowuTest/topup-callback/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testPartnerID = "partner-42"
	testSecret    = "super-secret-key"
)

func newTestVerifier(mode string, log *zap.Logger) *SignatureVerifier {
	return NewSignatureVerifier(config.ProviderConfig{
		PartnerID:     testPartnerID,
		SecretKey:     testSecret,
		SignatureMode: mode,
	}, log)
}

func TestSignPayloadKnownVector(t *testing.T) {
	// md5("" + "" + "") is the well-known empty digest
	if got := SignPayload("", "", ""); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("unexpected digest %s", got)
	}
	if SignPayload("k", "ab", "c") != SignPayload("k", "a", "bc") {
		t.Fatalf("signature must cover the plain concatenation")
	}
}

func TestVerify(t *testing.T) {
	v := newTestVerifier(config.SignatureStrict, nil)
	sign := v.Sign("CODE1", "SERIAL1")

	if !v.Verify(testPartnerID, "CODE1", "SERIAL1", sign) {
		t.Fatalf("valid signature rejected")
	}
	if v.Verify("other-partner", "CODE1", "SERIAL1", sign) {
		t.Fatalf("wrong partner accepted")
	}
	if v.Verify(testPartnerID, "CODE1", "SERIAL1", strings.ToUpper(sign)) {
		t.Fatalf("comparison must be exact")
	}

	// every single-character mutation of the signature must fail
	for i := range sign {
		mutated := []byte(sign)
		if mutated[i] == '0' {
			mutated[i] = '1'
		} else {
			mutated[i] = '0'
		}
		if v.Verify(testPartnerID, "CODE1", "SERIAL1", string(mutated)) {
			t.Fatalf("mutation at %d accepted", i)
		}
	}
	for i := range "CODE1" {
		code := []byte("CODE1")
		code[i]++
		if v.Verify(testPartnerID, string(code), "SERIAL1", sign) {
			t.Fatalf("code mutation at %d accepted", i)
		}
	}
	for i := range "SERIAL1" {
		serial := []byte("SERIAL1")
		serial[i]++
		if v.Verify(testPartnerID, "CODE1", string(serial), sign) {
			t.Fatalf("serial mutation at %d accepted", i)
		}
	}
}

func TestCheckStrict(t *testing.T) {
	v := newTestVerifier(config.SignatureStrict, nil)
	good := SignatureFields{PartnerID: testPartnerID, Code: "c", Serial: "s", Sign: v.Sign("c", "s")}

	if err := v.Check("R1", good); err != nil {
		t.Fatalf("valid fields rejected: %v", err)
	}

	missing := good
	missing.Sign = ""
	if err := v.Check("R1", missing); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	wrongPartner := good
	wrongPartner.PartnerID = "intruder"
	if err := v.Check("R1", wrongPartner); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	badSign := good
	badSign.Sign = strings.Repeat("0", 32)
	if err := v.Check("R1", badSign); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCheckLenient(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	v := newTestVerifier(config.SignatureLenient, zap.New(core))

	if err := v.Check("R1", SignatureFields{}); err != nil {
		t.Fatalf("incomplete fields should be skipped in lenient mode: %v", err)
	}
	if logs.FilterMessage("signature fields incomplete, verification skipped").Len() != 1 {
		t.Fatalf("expected a warning for skipped verification")
	}

	complete := SignatureFields{PartnerID: testPartnerID, Code: "c", Serial: "s", Sign: "deadbeef"}
	if err := v.Check("R1", complete); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("complete fields must still be verified, got %v", err)
	}
}

func TestCheckNeverLogsSecrets(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	v := newTestVerifier(config.SignatureStrict, zap.New(core))

	forged := "0123456789abcdef0123456789abcdef"
	_ = v.Check("R1", SignatureFields{PartnerID: testPartnerID, Code: "c", Serial: "s", Sign: forged})

	for _, entry := range logs.All() {
		for key, value := range entry.ContextMap() {
			s, ok := value.(string)
			if !ok {
				continue
			}
			if strings.Contains(s, testSecret) || s == forged {
				t.Fatalf("log field %s leaks %q", key, s)
			}
		}
	}
}
