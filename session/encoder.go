package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const sessionFormatVersionCurrent = 1

func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionCurrent)

	if len(s.UserID) > 255 {
		return nil, errors.New("userID too long")
	}
	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)

	if len(s.Username) > 255 {
		return nil, errors.New("username too long")
	}
	buf.WriteByte(byte(len(s.Username)))
	buf.WriteString(s.Username)

	// Signed tokens exceed 255 bytes, so the refresh token carries a
	// two-byte length.
	if len(s.RefreshToken) > math.MaxUint16 {
		return nil, errors.New("refresh token too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(s.RefreshToken))); err != nil {
		return nil, err
	}
	buf.WriteString(s.RefreshToken)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionCurrent {
		return nil, errors.New("invalid session version")
	}

	s := &Session{}

	userLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	userID := make([]byte, userLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	s.UserID = string(userID)

	nameLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	username := make([]byte, nameLen)
	if _, err := io.ReadFull(reader, username); err != nil {
		return nil, err
	}
	s.Username = string(username)

	var tokenLen uint16
	if err := binary.Read(reader, binary.BigEndian, &tokenLen); err != nil {
		return nil, err
	}
	token := make([]byte, tokenLen)
	if _, err := io.ReadFull(reader, token); err != nil {
		return nil, err
	}
	s.RefreshToken = string(token)

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}

	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}

	return s, nil
}
