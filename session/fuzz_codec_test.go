package session

import (
	"testing"
	"time"
)

// FuzzDecodeRecord exercises record decoding with arbitrary byte blobs.
// Goal: no panics; malformed blobs should return errors cleanly.
func FuzzDecodeRecord(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{1})
	f.Add([]byte{2, 0})
	f.Add(make([]byte, recordHeaderSize))

	valid := &TokenRecord{
		SessionID: "sess-fuzz",
		UserID:    "u-fuzz",
		Status:    StatusActive,
		CreatedAt: time.Now().Unix(),
	}
	valid.RecordID[0] = 7
	valid.TokenHash[0] = 9
	if blob, err := EncodeRecord(valid); err == nil {
		f.Add(blob)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		rec, err := DecodeRecord(data)
		if err != nil {
			return
		}

		// A decodable record must re-encode, and the re-encoded blob must
		// decode back to the same fields.
		blob, err := EncodeRecord(rec)
		if err != nil {
			t.Fatalf("re-encode of decoded record failed: %v", err)
		}
		rec2, err := DecodeRecord(blob)
		if err != nil {
			t.Fatalf("roundtrip decode failed: %v", err)
		}
		if *rec2 != *rec {
			t.Errorf("roundtrip mismatch: %+v vs %+v", rec2, rec)
		}
	})
}

// FuzzDecodeSession mirrors FuzzDecodeRecord for session blobs.
func FuzzDecodeSession(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{1})
	f.Add(make([]byte, 64))

	valid := &Session{
		UserID:       "u-fuzz",
		Username:     "fuzz",
		RefreshToken: "opaque-token",
		CreatedAt:    time.Now().Unix(),
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
	if blob, err := Encode(valid); err == nil {
		f.Add(blob)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if _, err := Encode(s); err != nil {
			t.Fatalf("re-encode of decoded session failed: %v", err)
		}
	})
}
