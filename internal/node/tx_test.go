package node

import (
	"encoding/hex"
	"testing"
)

func TestDecodeTxResponseDataRoundTrip(t *testing.T) {
	raw, err := hex.DecodeString("12340A2C2F636F736D7761736D2E7761736D2E76312E4D736745786563757465436F6E7472616374526573706F6E736512040A023332")
	if err != nil {
		t.Fatalf("invalid test fixture hex: %v", err)
	}

	data, err := DecodeTxResponseData(raw)
	if err != nil {
		t.Fatalf("DecodeTxResponseData: %v", err)
	}
	if string(data) != "32" {
		t.Fatalf("expected UTF-8 form %q, got %q", "32", string(data))
	}
}
