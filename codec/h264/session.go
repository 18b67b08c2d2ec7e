package h264

import (
	"errors"
	"sync"

	"github.com/ugparu/bitsyntax/utils"
	"github.com/ugparu/bitsyntax/utils/logger"
	"github.com/ugparu/bitsyntax/utils/nal"
)

// ParameterSets resolves parameter set ids.
type ParameterSets interface {
	Sps(id uint32) (*Sps, bool)
	Pps(id uint32) (*Pps, bool)
}

type tables struct {
	sps map[uint32]*Sps
	pps map[uint32]*Pps
}

func (t *tables) Sps(id uint32) (*Sps, bool) {
	sps, ok := t.sps[id]
	return sps, ok
}

func (t *tables) Pps(id uint32) (*Pps, bool) {
	pps, ok := t.pps[id]
	return pps, ok
}

// Session keeps the active parameter sets of one H.264 stream. A set is
// replaced when a unit with the same id is decoded successfully. Session is
// safe for concurrent use; each call holds the lock for one unit.
type Session struct {
	mu     sync.Mutex
	tables tables
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{tables: tables{
		sps: map[uint32]*Sps{},
		pps: map[uint32]*Pps{},
	}}
}

func (s *Session) String() string {
	return "H264_SESSION"
}

// Sps returns the stored SPS with the given id.
func (s *Session) Sps(id uint32) (*Sps, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables.Sps(id)
}

// Pps returns the stored PPS with the given id.
func (s *Session) Pps(id uint32) (*Pps, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables.Pps(id)
}

// Decode decodes one NAL unit without start code or length prefix. SPS and
// PPS units are stored in the session. A unit of an unknown or unsupported
// type comes back as Raw together with the header error so callers can skip
// it.
func (s *Session) Decode(nalu []byte) (*Nalu, error) {
	if len(nalu) == 0 {
		return nil, ErrEmptyNalu
	}
	hdr, err := DecodeNalHeader(nalu[0])
	if errors.Is(err, ErrForbiddenBit) {
		return nil, err
	}
	rbsp := nal.RBSP(nalu[1:])
	if err != nil {
		return &Nalu{Header: hdr, Body: Raw{Data: rbsp}}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unit := &Nalu{Header: hdr}
	switch hdr.Type {
	case NaluSPS:
		sps, err := DecodeSps(rbsp)
		if err != nil {
			return nil, err
		}
		s.tables.sps[sps.ID] = sps
		logger.Debugf(s, "stored sps %d %s %dx%d", sps.ID, sps.Profile, sps.Width(), sps.Height())
		unit.Body = sps
	case NaluPPS:
		pps, err := DecodePps(rbsp, &s.tables)
		if err != nil {
			return nil, err
		}
		s.tables.pps[pps.ID] = pps
		logger.Debugf(s, "stored pps %d for sps %d", pps.ID, pps.SpsID)
		unit.Body = pps
	case NaluNonIDR, NaluPartitionA, NaluCodedIDR:
		sh, err := DecodeSliceHeader(rbsp, hdr, &s.tables)
		if err != nil {
			return nil, err
		}
		unit.Body = sh
	case NaluAUD:
		aud, err := DecodeAud(rbsp)
		if err != nil {
			return nil, err
		}
		unit.Body = aud
	case NaluSEI:
		sei, err := DecodeSei(rbsp)
		if err != nil {
			return nil, err
		}
		unit.Body = sei
	default:
		unit.Body = Raw{Data: rbsp}
	}
	return unit, nil
}

// DecodeAnnexB decodes every unit of an Annex-B byte stream. It stops at the
// first error and returns the units decoded before it.
func (s *Session) DecodeAnnexB(stream []byte) ([]*Nalu, error) {
	return s.decodeAll(nal.SplitAnnexB(stream))
}

// DecodeAVCC decodes a buffer of 4-byte length prefixed units.
func (s *Session) DecodeAVCC(buf []byte) ([]*Nalu, error) {
	nalus, err := nal.SplitAVCC(buf)
	if err != nil {
		return nil, err
	}
	return s.decodeAll(nalus)
}

func (s *Session) decodeAll(nalus [][]byte) ([]*Nalu, error) {
	units := make([]*Nalu, 0, len(nalus))
	for _, b := range nalus {
		u, err := s.Decode(b)
		if err != nil {
			return units, err
		}
		units = append(units, u)
	}
	return units, nil
}

// LoadRecord stores the parameter sets of an avcC record and returns the
// codec parameters of its first SPS.
func (s *Session) LoadRecord(record []byte) (*CodecParameters, error) {
	var conf AVCDecoderConfRecord
	if _, err := conf.Unmarshal(record); err != nil {
		return nil, err
	}
	if len(conf.SPS) == 0 {
		return nil, utils.NoCodecDataError{}
	}

	var first *Sps
	for _, b := range conf.SPS {
		u, err := s.Decode(b)
		if err != nil {
			return nil, err
		}
		sps, ok := u.Body.(*Sps)
		if !ok {
			return nil, unknown("avcC sps nal_unit_type", uint64(u.Header.Type))
		}
		if first == nil {
			first = sps
		}
	}
	for _, b := range conf.PPS {
		if _, err := s.Decode(b); err != nil {
			return nil, err
		}
	}
	return NewCodecParameters(&conf, first), nil
}
