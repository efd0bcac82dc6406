package slp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mrnavastar/mclaunch/util"
)

var ErrUnexpectedPacket = errors.New("unexpected packet id")

const (
	handshakeId     = 0x00
	statusId        = 0x00
	nextStateStatus = 1

	// MaxPacketLength caps a declared frame length. Real status responses
	// with a favicon stay well under it.
	MaxPacketLength = 2 << 20
)

func framePacket(id int32, payload []byte) []byte {
	body := AppendVarInt(nil, id)
	body = append(body, payload...)
	return append(AppendVarInt(nil, int32(len(body))), body...)
}

func HandshakePacket(protocol int32, host string, port uint16) []byte {
	payload := AppendVarInt(nil, protocol)
	payload = AppendVarInt(payload, int32(len(host)))
	payload = append(payload, host...)
	payload = binary.BigEndian.AppendUint16(payload, port)
	payload = AppendVarInt(payload, nextStateStatus)
	return framePacket(handshakeId, payload)
}

func StatusRequestPacket() []byte {
	return framePacket(statusId, nil)
}

// FrameReader reassembles length-prefixed packets from arbitrary chunks.
type FrameReader struct {
	buf []byte
}

// Feed adds a chunk and returns the first complete packet body (id and
// payload, without the length prefix) once enough bytes have arrived.
func (f *FrameReader) Feed(chunk []byte) ([]byte, bool, error) {
	f.buf = append(f.buf, chunk...)

	length, n, err := ReadVarInt(f.buf)
	if err == errShort {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if length < 0 || length > MaxPacketLength {
		return nil, false, fmt.Errorf("%w: packet length %d", util.ErrMalformed, length)
	}

	end := n + int(length)
	if len(f.buf) < end {
		return nil, false, nil
	}
	packet := f.buf[n:end]
	f.buf = f.buf[end:]
	return packet, true, nil
}

// StatusJson extracts the JSON document from a status response packet body.
func StatusJson(packet []byte) ([]byte, error) {
	id, n, err := ReadVarInt(packet)
	if err != nil {
		return nil, fmt.Errorf("packet id: %w", err)
	}
	if id != statusId {
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnexpectedPacket, id)
	}

	length, m, err := ReadVarInt(packet[n:])
	if err != nil {
		return nil, fmt.Errorf("status length: %w", err)
	}
	start := n + m
	if length < 0 || start+int(length) > len(packet) {
		return nil, fmt.Errorf("status length %d exceeds packet", length)
	}
	return packet[start : start+int(length)], nil
}
