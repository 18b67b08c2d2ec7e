package h264

import "github.com/ugparu/bitsyntax/utils/bits"

// Aud is access_unit_delimiter_rbsp().
type Aud struct {
	PrimaryPicType uint8
}

// DecodeAud decodes an access unit delimiter RBSP.
func DecodeAud(rbsp []byte) (*Aud, error) {
	r := bits.NewFieldReader(bits.NewReader(rbsp))
	aud := &Aud{PrimaryPicType: uint8(r.Bits(3, "primary_pic_type"))} //nolint:gosec,mnd
	if r.Err() != nil {
		return nil, wrap("aud", r.Err())
	}
	return aud, nil
}

// SeiMessage is one sei_message() with its payload left undecoded.
type SeiMessage struct {
	PayloadType uint32
	Payload     []byte
}

// Sei is the list of messages of one SEI NAL unit.
type Sei []SeiMessage

const seiFFByte = 0xFF

// DecodeSei splits an SEI RBSP into messages. Payloads alias rbsp.
func DecodeSei(rbsp []byte) (Sei, error) {
	r := bits.NewFieldReader(bits.NewReader(rbsp))
	var sei Sei
	for r.Err() == nil && r.Reader().MoreRBSPData() {
		msg := SeiMessage{PayloadType: readSeiValue(r, "payload_type")}
		size := readSeiValue(r, "payload_size")
		msg.Payload = r.Bytes(int(size), "sei_payload")
		sei = append(sei, msg)
	}
	if r.Err() != nil {
		return nil, wrap("sei", r.Err())
	}
	return sei, nil
}

// readSeiValue reads the ff_byte prefixed payload type and size coding.
func readSeiValue(r *bits.FieldReader, field string) uint32 {
	var v uint32
	for r.Err() == nil {
		b := r.Bits(8, field) //nolint:mnd
		v += b
		if b != seiFFByte {
			break
		}
	}
	return v
}
