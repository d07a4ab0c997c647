package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Status is the lifecycle state of a [TokenRecord]. A record starts Active
// and moves to exactly one terminal state; terminal records never transition
// again.
type Status uint8

const (
	// StatusActive is an exported constant or variable used by the session engine.
	StatusActive Status = 0
	// StatusRefreshed is an exported constant or variable used by the session engine.
	StatusRefreshed Status = 1
	// StatusLogout is an exported constant or variable used by the session engine.
	StatusLogout Status = 2
	// StatusExpired is an exported constant or variable used by the session engine.
	StatusExpired Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusRefreshed:
		return "REFRESHED"
	case StatusLogout:
		return "LOGOUT"
	case StatusExpired:
		return "EXPIRED"
	}
	return "UNKNOWN"
}

// TokenRecord is the persisted audit row for one issued session token. Only
// the sha256 digest of the token is stored. A terminal record keeps its
// identity fields but has SessionID cleared, so the session slot is free for
// reuse while the history row survives.
type TokenRecord struct {
	RecordID  [16]byte
	SessionID string
	UserID    string
	TokenHash [32]byte
	Status    Status

	CreatedAt     int64
	UsedAt        int64
	InvalidatedAt int64
}

const recordFormatVersionCurrent = 1

// Record blob layout, version 1. The header is fixed-width so the store's
// Lua scripts can splice status, hash, and timestamps by offset without
// re-encoding the blob. The session ID sits at the tail so clearing it is a
// truncation.
//
//	byte 0       version
//	byte 1       status
//	bytes 2-17   record id
//	bytes 18-49  token hash
//	bytes 50-57  created_at (unix, big endian)
//	bytes 58-65  used_at (unix, big endian, 0 = unset)
//	bytes 66-73  invalidated_at (unix, big endian, 0 = unset)
//	byte 74      user id length, followed by user id
//	next byte    session id length, followed by session id
const (
	recordOffsetStatus        = 1
	recordOffsetRecordID      = 2
	recordOffsetTokenHash     = 18
	recordOffsetCreatedAt     = 50
	recordOffsetUsedAt        = 58
	recordOffsetInvalidatedAt = 66
	recordHeaderSize          = 74
)

func EncodeRecord(r *TokenRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)
	buf.WriteByte(byte(r.Status))
	buf.Write(r.RecordID[:])
	buf.Write(r.TokenHash[:])

	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.UsedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.InvalidatedAt); err != nil {
		return nil, err
	}

	if len(r.UserID) > 255 {
		return nil, errors.New("userID too long")
	}
	buf.WriteByte(byte(len(r.UserID)))
	buf.WriteString(r.UserID)

	if len(r.SessionID) > 255 {
		return nil, errors.New("sessionID too long")
	}
	buf.WriteByte(byte(len(r.SessionID)))
	buf.WriteString(r.SessionID)

	return buf.Bytes(), nil
}

func DecodeRecord(data []byte) (*TokenRecord, error) {
	if len(data) < recordHeaderSize+2 {
		return nil, errors.New("record blob truncated")
	}

	version := data[0]
	if version != recordFormatVersionCurrent {
		return nil, errors.New("invalid record version")
	}

	r := &TokenRecord{Status: Status(data[recordOffsetStatus])}
	copy(r.RecordID[:], data[recordOffsetRecordID:recordOffsetRecordID+16])
	copy(r.TokenHash[:], data[recordOffsetTokenHash:recordOffsetTokenHash+32])

	r.CreatedAt = int64(binary.BigEndian.Uint64(data[recordOffsetCreatedAt : recordOffsetCreatedAt+8]))
	r.UsedAt = int64(binary.BigEndian.Uint64(data[recordOffsetUsedAt : recordOffsetUsedAt+8]))
	r.InvalidatedAt = int64(binary.BigEndian.Uint64(data[recordOffsetInvalidatedAt : recordOffsetInvalidatedAt+8]))

	reader := bytes.NewReader(data[recordHeaderSize:])

	userLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	userID := make([]byte, userLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	r.UserID = string(userID)

	sidLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	sessionID := make([]byte, sidLen)
	if _, err := io.ReadFull(reader, sessionID); err != nil {
		return nil, err
	}
	r.SessionID = string(sessionID)

	return r, nil
}
