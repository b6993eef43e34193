// Package qrcode owns the permanent member credential payload. The
// payload carries exactly a gym identifier and a member identifier and
// carries no signature: a scan is trusted because the scanning user is
// authenticated within the gym, not because of the payload itself.
package qrcode

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is returned when a scanned payload does not decode to
// exactly a gym identifier and a member identifier.
var ErrMalformed = errors.New("invalid QR code data")

// Payload is the serialized content of a member's permanent QR code.
type Payload struct {
	GymID    string `json:"gymId"`
	MemberID string `json:"memberId"`
}

// Encode serializes the permanent credential payload for a member.
func Encode(gymID, memberID string) string {
	data, _ := json.Marshal(Payload{GymID: gymID, MemberID: memberID})
	return string(data)
}

// Decode parses a scanned payload. Both fields must be present.
func Decode(data string) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, ErrMalformed
	}
	if p.GymID == "" || p.MemberID == "" {
		return nil, ErrMalformed
	}
	return &p, nil
}

// NewMemberID generates a human-readable member identifier, unique in
// practice through the timestamp plus random suffix.
func NewMemberID() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return "MEM" + ts + strings.ToUpper(hex.EncodeToString(b))
}
